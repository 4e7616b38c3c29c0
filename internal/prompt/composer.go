// Package prompt turns extracted source facts into completion-service
// instructions. Composition is pure string templating: no I/O, and missing
// facts render as explicit "None" placeholders instead of erroring.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/testloom/testloom/internal/analyzer"
	"github.com/testloom/testloom/internal/chunker"
)

// Strategy selects one of the mutually exclusive prompt templates.
type Strategy string

const (
	SingleShot    Strategy = "single_shot"
	Chunked       Strategy = "chunked"
	FlowAnnotated Strategy = "flow_annotated"
	Merge         Strategy = "merge"
)

// GenParams are the generation parameters attached to a prompt. They are
// strategy-dependent constants unless the caller supplies an override.
type GenParams struct {
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
	MaxTokens     int
	ContextWindow int
	Stop          []string
}

// Prompt is one completion-service request body.
type Prompt struct {
	Text   string
	Params GenParams
}

// Params holds the per-strategy generation parameters.
type Params struct {
	SingleShot    GenParams
	Chunked       GenParams
	FlowAnnotated GenParams
	Merge         GenParams
}

// DefaultParams returns the stock per-strategy parameters. Chunk prompts get
// a smaller output budget since each covers only a few methods; the merge
// pass runs colder to keep assembly deterministic.
func DefaultParams() Params {
	return Params{
		SingleShot:    GenParams{Temperature: 0.2, TopP: 0.9, RepeatPenalty: 1.1, MaxTokens: 4096, ContextWindow: 8192},
		Chunked:       GenParams{Temperature: 0.2, TopP: 0.9, RepeatPenalty: 1.1, MaxTokens: 2048, ContextWindow: 8192},
		FlowAnnotated: GenParams{Temperature: 0.2, TopP: 0.9, RepeatPenalty: 1.1, MaxTokens: 2048, ContextWindow: 8192},
		Merge:         GenParams{Temperature: 0.1, TopP: 0.9, RepeatPenalty: 1.1, MaxTokens: 4096, ContextWindow: 8192},
	}
}

// Request carries everything a template can reference. Unit is required for
// every strategy except Merge; Chunk is required for Chunked and
// FlowAnnotated; Fragments is required for Merge.
type Request struct {
	Strategy   Strategy
	TargetName string
	Unit       *analyzer.SourceUnit
	Chunk      *chunker.Chunk
	ChunkCount int

	// Related maps auxiliary file names to their source, rendered
	// verbatim in a related-types section.
	Related map[string]string

	// Fragments are the per-chunk outputs to assemble, Merge only.
	Fragments []string

	// Override replaces the strategy's stock generation parameters.
	Override *GenParams
}

// Composer builds prompts from extracted facts.
type Composer interface {
	Compose(req Request) Prompt
}

type composer struct {
	params Params
}

// NewComposer creates a composer with the given per-strategy parameters.
func NewComposer(params Params) Composer {
	return &composer{params: params}
}

func (c *composer) Compose(req Request) Prompt {
	var text string
	var params GenParams

	switch req.Strategy {
	case Chunked:
		text = c.chunkTemplate(req, false)
		params = c.params.Chunked
	case FlowAnnotated:
		text = c.chunkTemplate(req, true)
		params = c.params.FlowAnnotated
	case Merge:
		text = c.mergeTemplate(req)
		params = c.params.Merge
	default:
		text = c.singleShotTemplate(req)
		params = c.params.SingleShot
	}

	if req.Override != nil {
		params = *req.Override
	}
	return Prompt{Text: text, Params: params}
}

func (c *composer) singleShotTemplate(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert Java developer. Write a complete JUnit 5 test class for the class `%s` below.\n\n", targetName(req))
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Name the test class `%sTest` and keep the original package.\n", targetName(req))
	b.WriteString("- Import from org.junit.jupiter.api and use @Test on every test method.\n")
	b.WriteString("- Mock the dependencies listed below with Mockito.\n")
	b.WriteString("- Cover normal cases, edge cases, and exception paths.\n")
	b.WriteString("- Return only Java code, no explanation.\n\n")

	writeDependencies(&b, req)
	writeMethodNames(&b, req)
	writeRelated(&b, req)

	b.WriteString("Source:\n```java\n")
	b.WriteString(unitText(req))
	b.WriteString("\n```\n")
	return b.String()
}

func (c *composer) chunkTemplate(req Request, withFlow bool) string {
	var b strings.Builder

	index, count := 0, 1
	var methods []string
	chunkText := unitText(req)
	if req.Chunk != nil {
		index = req.Chunk.Index
		methods = req.Chunk.Methods
		chunkText = req.Chunk.Text
	}
	if req.ChunkCount > 0 {
		count = req.ChunkCount
	}

	fmt.Fprintf(&b, "You are an expert Java developer. This is part %d of %d of the class `%s`.\n", index+1, count, targetName(req))
	fmt.Fprintf(&b, "Write JUnit 5 test methods for ONLY these methods: %s.\n\n", joinOrNone(methods))
	b.WriteString("Requirements:\n")
	b.WriteString("- Produce @Test methods only, without the class declaration or imports.\n")
	b.WriteString("- Mock the dependencies listed below with Mockito.\n")
	b.WriteString("- Return only Java code, no explanation.\n\n")

	writeDependencies(&b, req)
	if withFlow {
		writeFlowSummary(&b, req, methods)
	}

	b.WriteString("Source part:\n```java\n")
	b.WriteString(chunkText)
	b.WriteString("\n```\n")
	return b.String()
}

func (c *composer) mergeTemplate(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert Java developer. Assemble the test fragments below into ONE complete JUnit 5 test class named `%sTest`.\n\n", targetName(req))
	b.WriteString("Requirements:\n")
	b.WriteString("- Produce a single compilable class with one consolidated import block.\n")
	b.WriteString("- Keep every test method, dropping exact duplicates.\n")
	b.WriteString("- Return only Java code, no explanation.\n\n")

	if len(req.Fragments) == 0 {
		b.WriteString("Fragments:\nNone\n")
		return b.String()
	}
	for i, frag := range req.Fragments {
		fmt.Fprintf(&b, "Fragment %d:\n```java\n%s\n```\n\n", i+1, frag)
	}
	return b.String()
}

// writeFlowSummary renders the structured per-method analysis block. This is
// the only place flow facts are consumed.
func writeFlowSummary(b *strings.Builder, req Request, methods []string) {
	if req.Unit == nil {
		return
	}
	included := make(map[string]bool, len(methods))
	for _, name := range methods {
		included[name] = true
	}

	b.WriteString("Method analysis:\n")
	wrote := false
	for i := range req.Unit.Methods {
		m := &req.Unit.Methods[i]
		if len(methods) > 0 && !included[m.Name] {
			continue
		}
		if m.Flow == nil {
			continue
		}
		wrote = true
		fmt.Fprintf(b, "- %s: %d branches, throws [%s], catches [%s]\n",
			m.Name, m.Flow.BranchCount(),
			joinOrNone(m.Flow.ThrownExceptions), joinOrNone(m.Flow.CaughtExceptions))
		for _, call := range m.Flow.DependencyCalls {
			fmt.Fprintf(b, "  - calls %s.%s (%s)\n", call.Receiver, call.Method, call.Kind)
		}
		if len(m.Flow.AsyncMarkers) > 0 {
			fmt.Fprintf(b, "  - async: %s\n", strings.Join(m.Flow.AsyncMarkers, ", "))
		}
		if len(m.Flow.TransactionMarkers) > 0 {
			fmt.Fprintf(b, "  - transactional: %s\n", strings.Join(m.Flow.TransactionMarkers, ", "))
		}
	}
	if !wrote {
		b.WriteString("None\n")
	}
	b.WriteString("\n")
}

func writeDependencies(b *strings.Builder, req Request) {
	b.WriteString("Dependencies to mock:\n")
	if req.Unit == nil || len(req.Unit.Dependencies) == 0 {
		b.WriteString("None\n\n")
		return
	}
	for _, d := range req.Unit.Dependencies {
		fmt.Fprintf(b, "- `%s %s` (%s)\n", d.Type, d.Name, d.Origin)
	}
	b.WriteString("\n")
}

func writeMethodNames(b *strings.Builder, req Request) {
	b.WriteString("Methods to cover:\n")
	if req.Unit == nil || len(req.Unit.Methods) == 0 {
		b.WriteString("None\n\n")
		return
	}
	for _, m := range req.Unit.Methods {
		fmt.Fprintf(b, "- %s\n", m.Name)
	}
	b.WriteString("\n")
}

func writeRelated(b *strings.Builder, req Request) {
	if len(req.Related) == 0 {
		return
	}
	b.WriteString("Related types for context:\n")
	for _, name := range sortedKeys(req.Related) {
		fmt.Fprintf(b, "// %s\n```java\n%s\n```\n", name, req.Related[name])
	}
	b.WriteString("\n")
}

func targetName(req Request) string {
	if req.TargetName != "" {
		return req.TargetName
	}
	if req.Unit != nil && req.Unit.DeclaredName != "" {
		return req.Unit.DeclaredName
	}
	return "UnknownUnit"
}

func unitText(req Request) string {
	if req.Unit == nil {
		return ""
	}
	return req.Unit.Text
}

// sortedKeys keeps the related-types section deterministic across runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
