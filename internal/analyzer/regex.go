package analyzer

import (
	"regexp"
	"strings"
)

// regexExtractor scans source text with a fixed set of patterns. It trades
// correctness for cheapness: nested generics in parameter lists and
// annotations spanning multiple lines are known misses.
type regexExtractor struct{}

// NewRegexExtractor returns the default, pattern-based fact extractor.
func NewRegexExtractor() Extractor {
	return &regexExtractor{}
}

var (
	publicTypePattern = regexp.MustCompile(`public\s+(?:final\s+|abstract\s+|static\s+)*(?:class|interface|enum)\s+([A-Za-z_$][\w$]*)`)
	anyTypePattern    = regexp.MustCompile(`(?:class|interface|enum)\s+([A-Za-z_$][\w$]*)`)
	packagePattern    = regexp.MustCompile(`package\s+([A-Za-z_$][\w.$]*)\s*;`)

	// visibility, optional modifiers, return type (optionally qualified,
	// generic or array), identifier, parameter list, optional throws,
	// opening body brace.
	methodPattern = regexp.MustCompile(`(public|protected|private)\s+(?:(?:static|final|synchronized|abstract|native|default)\s+)*((?:[A-Za-z_$][\w$]*\.)*[A-Za-z_$][\w$]*(?:<[^<>]*>)?(?:\[\])*)\s+([A-Za-z_$][\w$]*)\s*\(([^()]*)\)\s*(?:throws\s+[\w.,\s]+?)?\{`)

	// injection annotation, optional modifiers, type, name, semicolon.
	fieldInjectPattern = regexp.MustCompile(`@(Autowired|Inject|Resource|Mock|MockBean)\s+(?:(?:private|protected|public|final|static|transient)\s+)*((?:[A-Za-z_$][\w$]*\.)*[A-Za-z_$][\w$]*(?:<[^<>]*>)?)\s+([A-Za-z_$][\w$]*)\s*;`)
)

func (e *regexExtractor) Extract(source string) SourceUnit {
	unit := SourceUnit{
		Text:      source,
		LineCount: strings.Count(source, "\n") + 1,
	}
	if source == "" {
		unit.LineCount = 0
		return unit
	}

	if m := packagePattern.FindStringSubmatch(source); m != nil {
		unit.PackagePath = m[1]
	}
	if m := publicTypePattern.FindStringSubmatch(source); m != nil {
		unit.DeclaredName = m[1]
	} else if m := anyTypePattern.FindStringSubmatch(source); m != nil {
		// Non-public or oddly formatted declarations still yield a name.
		unit.DeclaredName = m[1]
	}

	unit.Methods = e.extractMethods(source, unit.DeclaredName)
	unit.Dependencies = e.extractDependencies(source, unit.DeclaredName)
	return unit
}

func (e *regexExtractor) extractMethods(source, declaredName string) []MethodFact {
	matches := methodPattern.FindAllStringSubmatchIndex(source, -1)
	if matches == nil {
		return nil
	}

	methods := make([]MethodFact, 0, len(matches))
	for _, idx := range matches {
		name := source[idx[6]:idx[7]]
		if name == declaredName {
			continue // constructor
		}
		ret := source[idx[4]:idx[5]]
		if ret == "new" || ret == "return" {
			continue
		}
		methods = append(methods, MethodFact{
			Name:       name,
			ReturnType: ret,
			Visibility: source[idx[2]:idx[3]],
			Params:     parseParams(source[idx[8]:idx[9]]),
			Start:      idx[0],
			BodyStart:  idx[1] - 1,
		})
	}
	return methods
}

func (e *regexExtractor) extractDependencies(source, declaredName string) []DependencyFact {
	var deps []DependencyFact
	seen := make(map[string]bool)

	for _, m := range fieldInjectPattern.FindAllStringSubmatch(source, -1) {
		name := m[3]
		if seen[name] {
			continue
		}
		seen[name] = true
		deps = append(deps, DependencyFact{Type: m[2], Name: name, Origin: FieldInjection})
	}

	if declaredName == "" {
		return deps
	}

	ctorPattern := regexp.MustCompile(`(?:public|protected)\s+` + regexp.QuoteMeta(declaredName) + `\s*\(([^()]*)\)`)
	if m := ctorPattern.FindStringSubmatch(source); m != nil {
		for _, p := range parseParams(m[1]) {
			if p.Name == "" || seen[p.Name] {
				continue // field injection wins name collisions
			}
			seen[p.Name] = true
			deps = append(deps, DependencyFact{Type: p.Type, Name: p.Name, Origin: ConstructorParameter})
		}
	}
	return deps
}

// parseParams splits a parameter list on bare commas and each entry on its
// last whitespace boundary. A multi-argument generic type mis-parses into
// two entries; preserved behavior, see DESIGN.md.
func parseParams(list string) []Param {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}

	var params []Param
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimPrefix(part, "final ")
		for strings.HasPrefix(part, "@") {
			// drop parameter annotations like @RequestBody
			i := strings.IndexAny(part, " \t")
			if i < 0 {
				part = ""
				break
			}
			part = strings.TrimSpace(part[i+1:])
		}
		if part == "" {
			continue
		}
		if i := strings.LastIndexAny(part, " \t"); i >= 0 {
			params = append(params, Param{
				Type: strings.TrimSpace(part[:i]),
				Name: strings.TrimSpace(part[i+1:]),
			})
		} else {
			params = append(params, Param{Type: part})
		}
	}
	return params
}
