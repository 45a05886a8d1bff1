package docload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saptiva-ai/ragster/internal/core"
)

func TestLoadTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hola\n\nmundo"), 0o644))

	text, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hola\n\nmundo", text)
}

func TestLoadMarkdownFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# title"), 0o644))

	text, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "# title", text)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	_, err := NewLoader().Load(path)
	require.ErrorIs(t, err, core.ErrUnsupportedFormat)
	assert.True(t, core.IsFatal(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("notes.md"))
	assert.True(t, IsMarkdown("NOTES.MARKDOWN"))
	assert.False(t, IsMarkdown("notes.txt"))
	assert.False(t, IsMarkdown("archive.pdf"))
}
