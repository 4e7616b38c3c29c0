package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the grammar-backed extractor:
// - Produces the same names, methods, and dependencies as the pattern
//   extractor on well-formed input
// - Handles the multi-argument generic the pattern extractor mis-parses
// - Empty input yields empty facts

func TestTreeSitterExtractor_MatchesRegexOnPlainClass(t *testing.T) {
	t.Parallel()

	unit := NewTreeSitterExtractor().Extract(calculatorSource)

	assert.Equal(t, "Calculator", unit.DeclaredName)
	assert.Equal(t, "com.example.math", unit.PackagePath)
	require.Len(t, unit.Methods, 2)
	assert.Equal(t, "add", unit.Methods[0].Name)
	assert.Equal(t, "int", unit.Methods[0].ReturnType)
	assert.Equal(t, "divide", unit.Methods[1].Name)
	assert.Equal(t, "private", unit.Methods[1].Visibility)
	assert.Equal(t, []Param{{Type: "int", Name: "a"}, {Type: "int", Name: "b"}}, unit.Methods[0].Params)
}

func TestTreeSitterExtractor_DependencyMerge(t *testing.T) {
	t.Parallel()

	unit := NewTreeSitterExtractor().Extract(orderServiceSource)

	require.Len(t, unit.Dependencies, 3)
	byName := make(map[string]DependencyFact)
	for _, d := range unit.Dependencies {
		byName[d.Name] = d
	}
	assert.Equal(t, FieldInjection, byName["orderRepository"].Origin)
	assert.Equal(t, ConstructorParameter, byName["auditService"].Origin)
}

func TestTreeSitterExtractor_MultiArgumentGeneric(t *testing.T) {
	t.Parallel()

	src := `public class Counter {
    public void tally(Map<String, Integer> counts, String key) {
        counts.merge(key, 1, Integer::sum);
    }
}
`
	unit := NewTreeSitterExtractor().Extract(src)

	require.Len(t, unit.Methods, 1)
	// the parse tree keeps the generic type whole
	assert.Equal(t, []Param{
		{Type: "Map<String, Integer>", Name: "counts"},
		{Type: "String", Name: "key"},
	}, unit.Methods[0].Params)
}

func TestTreeSitterExtractor_EmptyInput(t *testing.T) {
	t.Parallel()

	unit := NewTreeSitterExtractor().Extract("")
	assert.Empty(t, unit.DeclaredName)
	assert.Empty(t, unit.Methods)
}
