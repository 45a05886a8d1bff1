// Package docload reads source documents and returns their raw text.
// Parsing of binary formats is delegated to external libraries; anything
// the dispatcher does not recognize fails with an unsupported-format
// error.
package docload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saptiva-ai/ragster/internal/core"
	"github.com/saptiva-ai/ragster/internal/logger"
)

// Loader implements core.DocumentLoader with extension-based dispatch.
type Loader struct{}

// NewLoader creates a new document loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the file at path and returns its full text content.
func (l *Loader) Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	logger.Debug("Loading document %s (format %q)", path, ext)

	switch ext {
	case ".txt", ".md", ".markdown":
		return loadTextFile(path)
	case ".docx":
		return loadWordDocument(path)
	case ".pdf":
		return loadPDF(path)
	default:
		return "", core.Fatal(fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, ext))
	}
}

// IsMarkdown reports whether the path carries a markdown extension.
func IsMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func loadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}
