package docload

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	paragraphEndRe = regexp.MustCompile(`</w:p>`)
	textRunRe      = regexp.MustCompile(`<w:t[^>]*>(.*?)</w:t>`)
)

// loadWordDocument extracts paragraph text from a .docx file, joining
// non-empty paragraphs with blank lines.
func loadWordDocument(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open word document: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()

	var paragraphs []string
	for _, block := range paragraphEndRe.Split(content, -1) {
		var runs []string
		for _, m := range textRunRe.FindAllStringSubmatch(block, -1) {
			runs = append(runs, html.UnescapeString(m[1]))
		}
		para := strings.TrimSpace(strings.Join(runs, ""))
		if para != "" {
			paragraphs = append(paragraphs, para)
		}
	}

	return strings.Join(paragraphs, "\n\n"), nil
}
