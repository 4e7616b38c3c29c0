package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testloom/testloom/internal/analyzer"
	"github.com/testloom/testloom/internal/chunker"
)

// Test Plan for Composer:
// - Single-shot template names the target class and lists methods and
//   dependencies as bullets
// - Missing facts render as "None", never an error
// - Chunk template restricts coverage to the chunk's methods
// - Flow-annotated template renders the per-method analysis block
// - Merge template numbers fragments
// - Overrides replace the strategy's stock parameters
// - Related types render deterministically

const serviceSource = `package com.example;

public class AccountService {

    @Autowired
    private AccountRepository accountRepository;

    public Account find(long id) {
        return accountRepository.findById(id);
    }

    public void close(Account account) {
        accountRepository.delete(account);
    }
}
`

func extracted(t *testing.T) *analyzer.SourceUnit {
	t.Helper()
	unit := analyzer.NewRegexExtractor().Extract(serviceSource)
	require.Equal(t, "AccountService", unit.DeclaredName)
	return &unit
}

func TestCompose_SingleShot(t *testing.T) {
	t.Parallel()

	c := NewComposer(DefaultParams())
	p := c.Compose(Request{Strategy: SingleShot, Unit: extracted(t)})

	assert.Contains(t, p.Text, "`AccountService`")
	assert.Contains(t, p.Text, "`AccountServiceTest`")
	assert.Contains(t, p.Text, "- `AccountRepository accountRepository` (field)")
	assert.Contains(t, p.Text, "- find\n- close\n")
	assert.Contains(t, p.Text, "```java\n"+serviceSource)
	assert.Equal(t, DefaultParams().SingleShot, p.Params)
}

func TestCompose_MissingFactsRenderNone(t *testing.T) {
	t.Parallel()

	unit := analyzer.NewRegexExtractor().Extract("public class Bare { }")
	p := NewComposer(DefaultParams()).Compose(Request{Strategy: SingleShot, Unit: &unit})

	assert.Contains(t, p.Text, "Dependencies to mock:\nNone\n")
	assert.Contains(t, p.Text, "Methods to cover:\nNone\n")
}

func TestCompose_UnknownUnitPlaceholder(t *testing.T) {
	t.Parallel()

	unit := analyzer.NewRegexExtractor().Extract("not java")
	p := NewComposer(DefaultParams()).Compose(Request{Strategy: SingleShot, Unit: &unit})

	assert.Contains(t, p.Text, "`UnknownUnit`")
}

func TestCompose_ChunkTemplate(t *testing.T) {
	t.Parallel()

	unit := extracted(t)
	chunks := chunker.NewChunker(1, 0).Split(unit)
	require.Len(t, chunks, 2)

	p := NewComposer(DefaultParams()).Compose(Request{
		Strategy:   Chunked,
		Unit:       unit,
		Chunk:      &chunks[0],
		ChunkCount: len(chunks),
	})

	assert.Contains(t, p.Text, "part 1 of 2")
	assert.Contains(t, p.Text, "ONLY these methods: find")
	assert.NotContains(t, p.Text, "ONLY these methods: find, close")
	assert.Contains(t, p.Text, "without the class declaration")
	assert.Equal(t, DefaultParams().Chunked, p.Params)
}

func TestCompose_FlowAnnotated(t *testing.T) {
	t.Parallel()

	unit := extracted(t)
	analyzer.NewRegexExtractor().AnalyzeFlow(unit)
	chunks := chunker.NewChunker(4, 0).Split(unit)

	p := NewComposer(DefaultParams()).Compose(Request{
		Strategy:   FlowAnnotated,
		Unit:       unit,
		Chunk:      &chunks[0],
		ChunkCount: len(chunks),
	})

	assert.Contains(t, p.Text, "Method analysis:")
	assert.Contains(t, p.Text, "- find: 0 branches, throws [None], catches [None]")
	assert.Contains(t, p.Text, "calls accountRepository.findById (repository)")
}

func TestCompose_Merge(t *testing.T) {
	t.Parallel()

	p := NewComposer(DefaultParams()).Compose(Request{
		Strategy:   Merge,
		TargetName: "AccountService",
		Fragments:  []string{"@Test void a() {}", "@Test void b() {}"},
	})

	assert.Contains(t, p.Text, "ONE complete JUnit 5 test class named `AccountServiceTest`")
	assert.Contains(t, p.Text, "Fragment 1:")
	assert.Contains(t, p.Text, "Fragment 2:")
	assert.Equal(t, DefaultParams().Merge, p.Params)
}

func TestCompose_Override(t *testing.T) {
	t.Parallel()

	override := GenParams{Temperature: 0.7, MaxTokens: 128}
	p := NewComposer(DefaultParams()).Compose(Request{
		Strategy: SingleShot,
		Unit:     extracted(t),
		Override: &override,
	})

	assert.Equal(t, override, p.Params)
}

func TestCompose_RelatedTypesDeterministic(t *testing.T) {
	t.Parallel()

	related := map[string]string{
		"B.java": "public class B {}",
		"A.java": "public class A {}",
	}
	c := NewComposer(DefaultParams())
	req := Request{Strategy: SingleShot, Unit: extracted(t), Related: related}

	first := c.Compose(req).Text
	second := c.Compose(req).Text

	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "A.java"), strings.Index(first, "B.java"))
	assert.Contains(t, first, "Related types for context:")
}
