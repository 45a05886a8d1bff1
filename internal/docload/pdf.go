package docload

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts text from a PDF, one page at a time, joining pages with
// blank lines. Pages with no extractable text are skipped.
func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, strings.TrimSpace(text))
		}
	}

	return strings.Join(pages, "\n\n"), nil
}
