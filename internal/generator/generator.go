// Package generator drives the whole pipeline: extract facts, pick a
// strategy, prompt the completion service, and carve a test class out of
// the answer. Every run terminates with a usable artifact; degraded output
// is signalled through IsFallback, never through an error.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/testloom/testloom/internal/analyzer"
	"github.com/testloom/testloom/internal/chunker"
	"github.com/testloom/testloom/internal/extract"
	"github.com/testloom/testloom/internal/llm"
	"github.com/testloom/testloom/internal/prompt"
)

// ErrEmptySource is the only request-level error: missing input is rejected
// before any extraction runs.
var ErrEmptySource = errors.New("sourceText is required")

// StrategyAuto lets the generator pick between single-shot and chunked.
const StrategyAuto = "auto"

// Config carries the strategy thresholds and generation parameters. All
// magic numbers of the decision logic live here.
type Config struct {
	// SingleShotMaxMethods and SingleShotMaxLines bound the single-shot
	// path: a unit at or above either limit goes through the chunker.
	SingleShotMaxMethods int
	SingleShotMaxLines   int

	// FlowComplexityThreshold switches a chunked run to the
	// flow-annotated template when the unit's branch and exception count
	// reaches it.
	FlowComplexityThreshold int

	MethodsPerChunk int
	MaxChunkChars   int

	Params prompt.Params
}

// DefaultConfig mirrors the stock thresholds.
func DefaultConfig() Config {
	return Config{
		SingleShotMaxMethods:    5,
		SingleShotMaxLines:      150,
		FlowComplexityThreshold: 20,
		MethodsPerChunk:         4,
		MaxChunkChars:           3000,
		Params:                  prompt.DefaultParams(),
	}
}

// Request is the inbound payload.
type Request struct {
	SourceText string
	TargetName string

	// Strategy is "auto" (or empty) for threshold-based selection, or an
	// explicit prompt strategy name.
	Strategy string

	// AdditionalContext maps auxiliary file names to source text shown
	// verbatim in the prompt's related-types section.
	AdditionalContext map[string]string
}

// Response is the outbound payload.
type Response struct {
	Text           string  `json:"text"`
	IsFallback     bool    `json:"isFallback"`
	StrategyUsed   string  `json:"strategyUsed"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Cached         bool    `json:"cached"`
}

// Generator runs the pipeline.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

type generator struct {
	cfg       Config
	extractor analyzer.Extractor
	chunks    chunker.Chunker
	composer  prompt.Composer
	gateway   llm.Gateway
	cache     *Cache
}

// New wires a generator from its collaborators. cache may be nil to disable
// result caching.
func New(cfg Config, extractor analyzer.Extractor, gateway llm.Gateway, cache *Cache) Generator {
	return &generator{
		cfg:       cfg,
		extractor: extractor,
		chunks:    chunker.NewChunker(cfg.MethodsPerChunk, cfg.MaxChunkChars),
		composer:  prompt.NewComposer(cfg.Params),
		gateway:   gateway,
		cache:     cache,
	}
}

func (g *generator) Generate(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.SourceText) == "" {
		return nil, ErrEmptySource
	}
	start := time.Now()

	unit := g.extractor.Extract(req.SourceText)
	targetName := req.TargetName
	if targetName == "" {
		targetName = unit.DeclaredName
	}
	if targetName == "" {
		targetName = "UnknownUnit"
	}

	strategy := g.pickStrategy(req.Strategy, &unit)

	// keyed on the resolved name and strategy so "auto" and an explicit
	// equivalent request share one entry
	key := cacheKey(req.SourceText, targetName, strategy)
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			cached.Cached = true
			cached.ElapsedSeconds = time.Since(start).Seconds()
			return &cached, nil
		}
	}

	var result extract.Result
	switch strategy {
	case prompt.Chunked, prompt.FlowAnnotated:
		result = g.runChunked(ctx, &unit, targetName, strategy, req.AdditionalContext)
	default:
		result = g.runSingleShot(ctx, &unit, targetName, req.AdditionalContext)
	}

	resp := &Response{
		Text:           result.Text,
		IsFallback:     result.IsFallback,
		StrategyUsed:   string(strategy),
		ElapsedSeconds: time.Since(start).Seconds(),
	}
	if g.cache != nil && !resp.IsFallback {
		g.cache.Set(key, *resp)
	}
	return resp, nil
}

// pickStrategy resolves "auto" against the configured thresholds. Flow
// analysis runs only when the chunked path is already selected, so small
// units never pay for it.
func (g *generator) pickStrategy(requested string, unit *analyzer.SourceUnit) prompt.Strategy {
	switch prompt.Strategy(requested) {
	case prompt.SingleShot, prompt.Chunked, prompt.FlowAnnotated:
		if prompt.Strategy(requested) != prompt.SingleShot {
			g.extractor.AnalyzeFlow(unit)
		}
		return prompt.Strategy(requested)
	}

	if len(unit.Methods) < g.cfg.SingleShotMaxMethods && unit.LineCount < g.cfg.SingleShotMaxLines {
		return prompt.SingleShot
	}

	g.extractor.AnalyzeFlow(unit)
	if analyzer.ComplexityScore(unit) >= g.cfg.FlowComplexityThreshold {
		return prompt.FlowAnnotated
	}
	return prompt.Chunked
}

func (g *generator) runSingleShot(ctx context.Context, unit *analyzer.SourceUnit, targetName string, related map[string]string) extract.Result {
	p := g.composer.Compose(prompt.Request{
		Strategy:   prompt.SingleShot,
		TargetName: targetName,
		Unit:       unit,
		Related:    related,
	})

	raw, err := g.gateway.Complete(ctx, p.Text, genOptions(p.Params))
	if err != nil {
		log.Printf("generate %s: completion failed: %v", targetName, err)
		return extract.Result{Text: extract.Fallback(targetName, methodNames(unit)), IsFallback: true}
	}
	return extract.Extract(raw, targetName)
}

func (g *generator) runChunked(ctx context.Context, unit *analyzer.SourceUnit, targetName string, strategy prompt.Strategy, related map[string]string) extract.Result {
	chunks := g.chunks.Split(unit)

	fragments := make([]string, 0, len(chunks))
	anyFallback := false
	for i := range chunks {
		frag, ok := g.runChunk(ctx, unit, &chunks[i], len(chunks), targetName, strategy, related)
		if !ok {
			anyFallback = true
		}
		fragments = append(fragments, frag)
	}

	merged := g.merge(ctx, targetName, fragments)
	if anyFallback {
		merged.IsFallback = true
	}
	return merged
}

func (g *generator) runChunk(ctx context.Context, unit *analyzer.SourceUnit, chunk *chunker.Chunk, count int, targetName string, strategy prompt.Strategy, related map[string]string) (string, bool) {
	p := g.composer.Compose(prompt.Request{
		Strategy:   strategy,
		TargetName: targetName,
		Unit:       unit,
		Chunk:      chunk,
		ChunkCount: count,
		Related:    related,
	})

	raw, err := g.gateway.Complete(ctx, p.Text, genOptions(p.Params))
	if err != nil {
		log.Printf("generate %s: chunk %d failed: %v", targetName, chunk.Index+1, err)
		return fallbackFragment(targetName, chunk.Methods), false
	}
	frag := strings.TrimSpace(stripFences(raw))
	if frag == "" {
		return fallbackFragment(targetName, chunk.Methods), false
	}
	return frag, true
}

// merge asks the backend to assemble the fragments into one class and falls
// back to deterministic concatenation when that round trip fails validation.
func (g *generator) merge(ctx context.Context, targetName string, fragments []string) extract.Result {
	p := g.composer.Compose(prompt.Request{
		Strategy:   prompt.Merge,
		TargetName: targetName,
		Fragments:  fragments,
	})

	raw, err := g.gateway.Complete(ctx, p.Text, genOptions(p.Params))
	if err == nil {
		if merged := extract.Extract(raw, targetName); !merged.IsFallback {
			return merged
		}
	} else {
		log.Printf("generate %s: merge round trip failed: %v", targetName, err)
	}

	var methods []string
	for _, frag := range fragments {
		methods = append(methods, carveTestMethods(frag)...)
	}
	if len(methods) == 0 {
		return extract.Result{Text: extract.Fallback(targetName, nil), IsFallback: true}
	}
	return extract.Result{Text: concatenate(targetName, methods)}
}

// concatenate is the manual merge: a fixed import block, one class wrapper,
// and every carved test method.
func concatenate(targetName string, methods []string) string {
	var b strings.Builder
	b.WriteString("import org.junit.jupiter.api.BeforeEach;\n")
	b.WriteString("import org.junit.jupiter.api.Test;\n")
	b.WriteString("import org.junit.jupiter.api.extension.ExtendWith;\n")
	b.WriteString("import org.mockito.InjectMocks;\n")
	b.WriteString("import org.mockito.Mock;\n")
	b.WriteString("import org.mockito.junit.jupiter.MockitoExtension;\n\n")
	b.WriteString("import static org.junit.jupiter.api.Assertions.*;\n")
	b.WriteString("import static org.mockito.Mockito.*;\n\n")
	b.WriteString("@ExtendWith(MockitoExtension.class)\n")
	fmt.Fprintf(&b, "public class %sTest {\n\n", targetName)

	for _, method := range methods {
		b.WriteString(indent(method, "    "))
		b.WriteString("\n\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// carveTestMethods recovers @Test methods from a fragment by brace
// balancing from each annotation. Fragments that hold raw stubs survive
// unchanged; prose around them is dropped.
func carveTestMethods(fragment string) []string {
	var methods []string
	offset := 0
	for {
		idx := strings.Index(fragment[offset:], "@Test")
		if idx < 0 {
			break
		}
		idx += offset

		// pull in annotation lines directly above, @Disabled and friends
		start := lineStart(fragment, idx)
		for start > 0 {
			prev := lineStart(fragment, start-1)
			line := strings.TrimSpace(fragment[prev:start])
			if !strings.HasPrefix(line, "@") {
				break
			}
			start = prev
		}

		open := strings.IndexByte(fragment[idx:], '{')
		if open < 0 {
			break
		}
		end := analyzer.MatchBrace(fragment, idx+open)
		if end < 0 {
			methods = append(methods, strings.TrimSpace(fragment[start:]))
			break
		}
		methods = append(methods, strings.TrimSpace(fragment[start:end]))
		offset = end
	}
	return methods
}

func fallbackFragment(targetName string, methods []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// generation failed for: %s\n", strings.Join(methods, ", "))
	for _, m := range methods {
		title := strings.ToUpper(m[:1]) + m[1:]
		b.WriteString("@Test\n")
		fmt.Fprintf(&b, "void test%s() {\n", title)
		fmt.Fprintf(&b, "    fail(\"test for %s.%s was not generated\");\n", targetName, m)
		b.WriteString("}\n\n")
	}
	return b.String()
}

func stripFences(raw string) string {
	if blocks := fenceBlocks(raw); len(blocks) > 0 {
		return blocks[len(blocks)-1]
	}
	return raw
}

func fenceBlocks(raw string) []string {
	var blocks []string
	for {
		open := strings.Index(raw, "```")
		if open < 0 {
			break
		}
		nl := strings.IndexByte(raw[open:], '\n')
		if nl < 0 {
			break
		}
		rest := raw[open+nl+1:]
		closeIdx := strings.Index(rest, "```")
		if closeIdx < 0 {
			break
		}
		blocks = append(blocks, rest[:closeIdx])
		raw = rest[closeIdx+3:]
	}
	return blocks
}

func lineStart(s string, idx int) int {
	if nl := strings.LastIndexByte(s[:idx], '\n'); nl >= 0 {
		return nl + 1
	}
	return 0
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func methodNames(unit *analyzer.SourceUnit) []string {
	names := make([]string, 0, len(unit.Methods))
	for _, m := range unit.Methods {
		names = append(names, m.Name)
	}
	return names
}

func genOptions(p prompt.GenParams) llm.GenOptions {
	return llm.GenOptions{
		Temperature:   p.Temperature,
		TopP:          p.TopP,
		RepeatPenalty: p.RepeatPenalty,
		MaxTokens:     p.MaxTokens,
		ContextWindow: p.ContextWindow,
		Stop:          p.Stop,
	}
}
