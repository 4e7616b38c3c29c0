package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// treeSitterExtractor recovers facts from a real parse tree instead of
// pattern matching. Same Extractor contract, fewer false positives on
// annotations and nested generics.
type treeSitterExtractor struct {
	language *sitter.Language
}

// NewTreeSitterExtractor returns the grammar-backed fact extractor.
func NewTreeSitterExtractor() Extractor {
	return &treeSitterExtractor{
		language: sitter.NewLanguage(java.Language()),
	}
}

var injectionAnnotations = []string{"@Autowired", "@Inject", "@Resource", "@Mock", "@MockBean"}

func (e *treeSitterExtractor) Extract(source string) SourceUnit {
	unit := SourceUnit{
		Text:      source,
		LineCount: strings.Count(source, "\n") + 1,
	}
	if source == "" {
		unit.LineCount = 0
		return unit
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.language)

	src := []byte(source)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return unit
	}
	defer tree.Close()

	root := tree.RootNode()

	if pkg := findChildByType(root, "package_declaration"); pkg != nil {
		nameNode := findChildByType(pkg, "scoped_identifier")
		if nameNode == nil {
			nameNode = findChildByType(pkg, "identifier")
		}
		unit.PackagePath = extractNodeText(nameNode, src)
	}

	typeNode := e.findTypeDeclaration(root, src)
	if typeNode == nil {
		return unit
	}
	unit.DeclaredName = extractNodeText(typeNode.ChildByFieldName("name"), src)

	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return unit
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(uint(i))
		switch child.Kind() {
		case "method_declaration":
			unit.Methods = append(unit.Methods, e.extractMethod(child, src))
		case "field_declaration":
			if dep, ok := e.extractInjectedField(child, src); ok {
				unit.Dependencies = appendDependency(unit.Dependencies, dep)
			}
		case "constructor_declaration":
			for _, dep := range e.extractConstructorDeps(child, src) {
				unit.Dependencies = appendDependency(unit.Dependencies, dep)
			}
		}
	}
	return unit
}

// findTypeDeclaration returns the first public top-level type, or the first
// type of any visibility when none is public.
func (e *treeSitterExtractor) findTypeDeclaration(root *sitter.Node, src []byte) *sitter.Node {
	var first *sitter.Node
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration":
			if first == nil {
				first = child
			}
			mods := findChildByType(child, "modifiers")
			if mods != nil && strings.Contains(extractNodeText(mods, src), "public") {
				return child
			}
		}
	}
	return first
}

func (e *treeSitterExtractor) extractMethod(node *sitter.Node, src []byte) MethodFact {
	m := MethodFact{
		Name:       extractNodeText(node.ChildByFieldName("name"), src),
		ReturnType: extractNodeText(node.ChildByFieldName("type"), src),
		Visibility: nodeVisibility(node, src),
		Start:      int(node.StartByte()),
		BodyStart:  -1,
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.BodyStart = int(body.StartByte())
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		m.Params = extractFormalParams(params, src)
	}
	return m
}

func (e *treeSitterExtractor) extractInjectedField(node *sitter.Node, src []byte) (DependencyFact, bool) {
	mods := findChildByType(node, "modifiers")
	if mods == nil {
		return DependencyFact{}, false
	}
	modText := extractNodeText(mods, src)
	injected := false
	for _, ann := range injectionAnnotations {
		if strings.Contains(modText, ann) {
			injected = true
			break
		}
	}
	if !injected {
		return DependencyFact{}, false
	}

	decl := findChildByType(node, "variable_declarator")
	if decl == nil {
		return DependencyFact{}, false
	}
	return DependencyFact{
		Type:   extractNodeText(node.ChildByFieldName("type"), src),
		Name:   extractNodeText(decl.ChildByFieldName("name"), src),
		Origin: FieldInjection,
	}, true
}

func (e *treeSitterExtractor) extractConstructorDeps(node *sitter.Node, src []byte) []DependencyFact {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var deps []DependencyFact
	for _, p := range extractFormalParams(params, src) {
		deps = append(deps, DependencyFact{Type: p.Type, Name: p.Name, Origin: ConstructorParameter})
	}
	return deps
}

// appendDependency keeps the dedup rule: first fact for a name wins, and
// field declarations are visited before the constructor within a class body
// only by source order, so check origin explicitly.
func appendDependency(deps []DependencyFact, dep DependencyFact) []DependencyFact {
	for i := range deps {
		if deps[i].Name != dep.Name {
			continue
		}
		if deps[i].Origin == ConstructorParameter && dep.Origin == FieldInjection {
			deps[i] = dep
		}
		return deps
	}
	return append(deps, dep)
}

func extractFormalParams(params *sitter.Node, src []byte) []Param {
	var out []Param
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(uint(i))
		if child.Kind() != "formal_parameter" && child.Kind() != "spread_parameter" {
			continue
		}
		out = append(out, Param{
			Type: extractNodeText(child.ChildByFieldName("type"), src),
			Name: extractNodeText(child.ChildByFieldName("name"), src),
		})
	}
	return out
}

func nodeVisibility(node *sitter.Node, src []byte) string {
	mods := findChildByType(node, "modifiers")
	if mods != nil {
		text := extractNodeText(mods, src)
		for _, v := range []string{"private", "protected", "public"} {
			if strings.Contains(text, v) {
				return v
			}
		}
	}
	return "public"
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// AnalyzeFlow uses the same textual body scan as the pattern extractor; the
// parse tree only improves signature recovery.
func (e *treeSitterExtractor) AnalyzeFlow(unit *SourceUnit) {
	analyzeFlow(unit)
}
