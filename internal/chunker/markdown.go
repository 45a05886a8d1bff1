package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/saptiva-ai/ragster/internal/core"
)

// ATX headers, levels 1-6
var headerRe = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*$`)

// LooksLikeMarkdown reports whether text starts with a markdown header,
// which is how markdown content is auto-detected.
func LooksLikeMarkdown(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "#")
}

// SplitMarkdown splits text strictly at header boundaries, emitting one
// chunk per header section regardless of size. Header lines are kept in
// the chunk body, and the path of headers leading to a section
// ("Header 1" .. "Header 6" to header text) is retained as chunk
// metadata. Content before the first header becomes its own chunk with no
// header metadata; a document with no header at all yields exactly one
// chunk with the whole text. Blank input yields no chunks.
func SplitMarkdown(text string) []core.Chunk {
	type section struct {
		lines   []string
		headers map[string]string
	}

	var (
		sections []section
		current  section
		path     = map[string]string{}
	)
	flush := func() {
		body := strings.TrimSpace(strings.Join(current.lines, "\n"))
		if body != "" {
			sections = append(sections, section{lines: []string{body}, headers: current.headers})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			current.lines = append(current.lines, line)
			continue
		}

		flush()

		level := len(m[1])
		// A header replaces its own level and invalidates anything deeper.
		for l := level; l <= 6; l++ {
			delete(path, headerKey(l))
		}
		path[headerKey(level)] = m[2]

		headers := make(map[string]string, len(path))
		for k, v := range path {
			headers[k] = v
		}
		current = section{lines: []string{line}, headers: headers}
	}
	flush()

	chunks := make([]core.Chunk, len(sections))
	for i, s := range sections {
		chunks[i] = core.Chunk{
			Text:    s.lines[0],
			Num:     i + 1,
			Total:   len(sections),
			Headers: s.headers,
		}
	}
	return chunks
}

func headerKey(level int) string {
	return fmt.Sprintf("Header %d", level)
}
