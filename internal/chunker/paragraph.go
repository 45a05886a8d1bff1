// Package chunker splits raw document text into ordered, overlapping
// chunks, either at markdown header boundaries or by a size-bounded
// paragraph splitter.
package chunker

import (
	"regexp"
	"strings"

	"github.com/saptiva-ai/ragster/internal/core"
)

// blank-line runs separate paragraphs
var paragraphBreakRe = regexp.MustCompile(`\n\s*\n`)

// SplitParagraphs splits text into chunks of whole paragraphs, packing
// paragraphs greedily up to chunkSize characters. When overlap > 0 each
// chunk after the first starts with the last paragraph of the previous
// chunk. A single paragraph longer than chunkSize becomes its own
// oversized chunk. Blank input yields no chunks; input without a
// paragraph break yields exactly one chunk.
func SplitParagraphs(text string, chunkSize, overlap int) []core.Chunk {
	var paragraphs []string
	for _, p := range paragraphBreakRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		pieces      []string
		current     []string
		currentSize int
	)
	flush := func() {
		pieces = append(pieces, strings.Join(current, "\n\n"))
		if overlap > 0 {
			current = current[len(current)-1:]
			currentSize = len(current[0])
		} else {
			current = nil
			currentSize = 0
		}
	}

	for _, para := range paragraphs {
		if currentSize+len(para) > chunkSize && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		currentSize += len(para)
	}
	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, "\n\n"))
	}

	chunks := make([]core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = core.Chunk{Text: piece, Num: i + 1, Total: len(pieces)}
	}
	return chunks
}
