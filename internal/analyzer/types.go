package analyzer

// SourceUnit is one Java source file plus the facts recovered from it.
// All extraction is read-only over Text; a unit is never mutated after
// Extract returns it.
type SourceUnit struct {
	// Text is the raw source exactly as received.
	Text string

	// DeclaredName is the identifier of the first public type declaration,
	// or empty when none matched. Callers substitute a placeholder name.
	DeclaredName string

	// PackagePath is the declared package, or empty.
	PackagePath string

	// Methods lists extracted methods in source order. Constructors are
	// excluded by name-equality against DeclaredName.
	Methods []MethodFact

	// Dependencies lists injectable collaborators, deduplicated by name
	// with field injection winning over constructor parameters.
	Dependencies []DependencyFact

	// LineCount is the number of lines in Text.
	LineCount int
}

// Param is one {type, name} pair from a parameter list.
type Param struct {
	Type string
	Name string
}

// MethodFact is one extracted method signature.
type MethodFact struct {
	Name       string
	ReturnType string
	Visibility string
	Params     []Param

	// Start is the byte offset of the signature match in the unit text.
	Start int
	// BodyStart is the byte offset of the opening body brace.
	BodyStart int

	// RawBody holds the brace-balanced body text. Populated only when
	// flow analysis runs; empty otherwise.
	RawBody string

	// Flow holds best-effort flow hints. Nil until flow analysis runs.
	Flow *FlowFact
}

// DependencyOrigin says where a dependency fact was recovered from.
type DependencyOrigin int

const (
	FieldInjection DependencyOrigin = iota
	ConstructorParameter
)

func (o DependencyOrigin) String() string {
	if o == FieldInjection {
		return "field"
	}
	return "constructor"
}

// DependencyFact is one injectable collaborator.
type DependencyFact struct {
	Type   string
	Name   string
	Origin DependencyOrigin
}

// DependencyCall is one observed call through a collaborator or type.
type DependencyCall struct {
	Receiver string
	Method   string
	// Kind buckets the call heuristically: repository, service, client,
	// or static. Hints only, never validated.
	Kind string
}

// FlowFact is the optional per-method deep analysis result. Every field is
// a best-effort hint recovered by pattern matching, not a guarantee.
type FlowFact struct {
	Conditions         []string
	SwitchCases        []string
	TernaryCount       int
	NullCheckCount     int
	EmptinessCheckCount int
	ThrownExceptions   []string
	CaughtExceptions   []string
	DependencyCalls    []DependencyCall
	AsyncMarkers       []string
	TransactionMarkers []string
}

// BranchCount counts conditional branches for complexity scoring.
func (f *FlowFact) BranchCount() int {
	if f == nil {
		return 0
	}
	return len(f.Conditions) + len(f.SwitchCases) + f.TernaryCount
}

// ExceptionCount counts thrown plus caught exception types.
func (f *FlowFact) ExceptionCount() int {
	if f == nil {
		return 0
	}
	return len(f.ThrownExceptions) + len(f.CaughtExceptions)
}

// Extractor recovers structural facts from raw Java source. Implementations
// are best-effort: extraction never fails, absent facts are simply empty.
type Extractor interface {
	// Extract scans the source and returns a populated SourceUnit.
	Extract(source string) SourceUnit

	// AnalyzeFlow attaches a FlowFact (and RawBody) to each method of a
	// previously extracted unit.
	AnalyzeFlow(unit *SourceUnit)
}

// ComplexityScore sums branch and exception counts across all methods of a
// flow-analyzed unit. Units without flow facts score zero.
func ComplexityScore(unit *SourceUnit) int {
	score := 0
	for i := range unit.Methods {
		f := unit.Methods[i].Flow
		score += f.BranchCount() + f.ExceptionCount()
	}
	return score
}
