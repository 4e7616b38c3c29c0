package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testloom/testloom/internal/analyzer"
)

// Test Plan for Chunker:
// - Groups methods four at a time in source order
// - Every chunk replicates the class header
// - Union of chunk methods equals the extracted method list exactly once
// - Size trigger starts a new chunk early
// - Units without extracted methods yield one catch-all chunk
// - Unmatchable method bodies still land in a chunk

func buildSource(methodCount int) string {
	var b strings.Builder
	b.WriteString("package com.example.big;\n\n")
	b.WriteString("public class BigService {\n\n")
	b.WriteString("    @Autowired\n    private WidgetRepository widgetRepository;\n\n")
	for i := 0; i < methodCount; i++ {
		fmt.Fprintf(&b, "    public int method%d(int x) {\n        return x + %d;\n    }\n\n", i, i)
	}
	b.WriteString("}\n")
	return b.String()
}

func TestChunker_GroupsOfFourInSourceOrder(t *testing.T) {
	t.Parallel()

	unit := analyzer.NewRegexExtractor().Extract(buildSource(12))
	require.Len(t, unit.Methods, 12)

	chunks := NewChunker(4, 0).Split(&unit)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, len(chunk.Methods), 4)
		assert.Contains(t, chunk.Text, "class BigService")
		assert.Contains(t, chunk.Text, "widgetRepository")
	}
	assert.Equal(t, []string{"method0", "method1", "method2", "method3"}, chunks[0].Methods)
	assert.Equal(t, []string{"method8", "method9", "method10", "method11"}, chunks[2].Methods)
}

func TestChunker_UnionProperty(t *testing.T) {
	t.Parallel()

	unit := analyzer.NewRegexExtractor().Extract(buildSource(10))
	chunks := NewChunker(4, 0).Split(&unit)

	var all []string
	for _, chunk := range chunks {
		all = append(all, chunk.Methods...)
	}

	var want []string
	for _, m := range unit.Methods {
		want = append(want, m.Name)
	}
	assert.Equal(t, want, all)
}

func TestChunker_SizeTrigger(t *testing.T) {
	t.Parallel()

	unit := analyzer.NewRegexExtractor().Extract(buildSource(8))
	chunks := NewChunker(4, 300).Split(&unit)

	// the header alone is near the cap, so each method gets its own chunk
	assert.Greater(t, len(chunks), 2)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Methods)
	}
}

func TestChunker_NoMethodsCatchall(t *testing.T) {
	t.Parallel()

	unit := analyzer.NewRegexExtractor().Extract("package x;\n\npublic interface Marker {}\n")
	chunks := NewChunker(4, 0).Split(&unit)

	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Catchall)
	assert.Equal(t, unit.Text, chunks[0].Text)
}

func TestChunker_UnmatchableBodyStillEmitted(t *testing.T) {
	t.Parallel()

	src := "public class Broken {\n" +
		"    public void first() { if (x) {\n" +
		"    public void second() { done(); }\n" +
		"}\n"
	unit := analyzer.NewRegexExtractor().Extract(src)
	require.Len(t, unit.Methods, 2)

	chunks := NewChunker(1, 0).Split(&unit)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "first()")
	assert.Contains(t, chunks[1].Text, "second()")
}
