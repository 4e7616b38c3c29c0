// Package chunker splits a large source unit into bounded, self-describing
// pieces. Every chunk replicates the class header so the downstream prompt
// can treat it as a complete unit.
package chunker

import (
	"strings"

	"github.com/testloom/testloom/internal/analyzer"
)

// Chunk is one promptable slice of a source unit.
type Chunk struct {
	// Index is the position of the chunk in source order, starting at 0.
	Index int

	// Text is the reconstructed slice: class header plus the bodies of
	// the methods in this chunk.
	Text string

	// Methods names the methods physically located in this chunk.
	Methods []string

	// Catchall marks a chunk emitted for text whose method boundaries
	// could not be recovered.
	Catchall bool
}

// Chunker partitions an extracted unit into chunks.
type Chunker interface {
	// Split returns chunks in source order. Each extracted method lands
	// in exactly one chunk. Units with no extracted methods yield a
	// single catch-all chunk holding the whole text.
	Split(unit *analyzer.SourceUnit) []Chunk
}

type methodChunker struct {
	methodsPerChunk int
	maxChunkChars   int
}

// NewChunker creates a chunker that groups up to methodsPerChunk methods per
// chunk, starting a new chunk early when the assembled text would exceed
// maxChunkChars. A maxChunkChars of 0 disables the size trigger.
func NewChunker(methodsPerChunk, maxChunkChars int) Chunker {
	if methodsPerChunk < 1 {
		methodsPerChunk = 1
	}
	return &methodChunker{
		methodsPerChunk: methodsPerChunk,
		maxChunkChars:   maxChunkChars,
	}
}

func (c *methodChunker) Split(unit *analyzer.SourceUnit) []Chunk {
	if len(unit.Methods) == 0 {
		return []Chunk{{Index: 0, Text: unit.Text, Catchall: true}}
	}

	header := unit.Text[:unit.Methods[0].Start]

	var chunks []Chunk
	var names []string
	var bodies []string
	size := len(header)

	flush := func() {
		if len(names) == 0 {
			return
		}
		var b strings.Builder
		b.WriteString(header)
		for _, body := range bodies {
			b.WriteString(body)
			b.WriteString("\n")
		}
		b.WriteString("}\n")
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Text:    b.String(),
			Methods: names,
		})
		names = nil
		bodies = nil
		size = len(header)
	}

	for i := range unit.Methods {
		next := len(unit.Text)
		if i+1 < len(unit.Methods) {
			next = unit.Methods[i+1].Start
		}
		start, end := analyzer.MethodSpan(unit.Text, unit.Methods[i], next)
		body := unit.Text[start:end]

		if len(names) >= c.methodsPerChunk {
			flush()
		}
		if c.maxChunkChars > 0 && len(names) > 0 && size+len(body) > c.maxChunkChars {
			flush()
		}
		names = append(names, unit.Methods[i].Name)
		bodies = append(bodies, body)
		size += len(body)
	}
	flush()
	return chunks
}
