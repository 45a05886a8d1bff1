package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeMarkdown(t *testing.T) {
	assert.True(t, LooksLikeMarkdown("# title\n\nbody"))
	assert.True(t, LooksLikeMarkdown("\n  # indented start"))
	assert.False(t, LooksLikeMarkdown("plain text"))
	assert.False(t, LooksLikeMarkdown(""))
}

func TestSplitMarkdownOneChunkPerHeaderSection(t *testing.T) {
	text := "# Title\n\nintro text\n\n## Section One\n\nfirst body\n\n## Section Two\n\nsecond body"
	chunks := SplitMarkdown(text)

	require.Len(t, chunks, 3)

	assert.Equal(t, "# Title\n\nintro text", chunks[0].Text)
	assert.Equal(t, map[string]string{"Header 1": "Title"}, chunks[0].Headers)

	assert.Equal(t, "## Section One\n\nfirst body", chunks[1].Text)
	assert.Equal(t, map[string]string{"Header 1": "Title", "Header 2": "Section One"}, chunks[1].Headers)

	assert.Equal(t, "## Section Two\n\nsecond body", chunks[2].Text)
	assert.Equal(t, map[string]string{"Header 1": "Title", "Header 2": "Section Two"}, chunks[2].Headers)

	for i, c := range chunks {
		assert.Equal(t, i+1, c.Num)
		assert.Equal(t, 3, c.Total)
	}
}

func TestSplitMarkdownDeeperHeaderClearsStaleLevels(t *testing.T) {
	text := "## A\n\nbody a\n\n### A1\n\nbody a1\n\n## B\n\nbody b"
	chunks := SplitMarkdown(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, map[string]string{"Header 2": "A", "Header 3": "A1"}, chunks[1].Headers)
	// Returning to level 2 drops the level-3 entry.
	assert.Equal(t, map[string]string{"Header 2": "B"}, chunks[2].Headers)
}

func TestSplitMarkdownContentBeforeFirstHeader(t *testing.T) {
	chunks := SplitMarkdown("preamble text\n\n# First\n\nbody")

	require.Len(t, chunks, 2)
	assert.Equal(t, "preamble text", chunks[0].Text)
	assert.Empty(t, chunks[0].Headers)
	assert.Equal(t, "# First\n\nbody", chunks[1].Text)
}

func TestSplitMarkdownNoHeaderYieldsWholeText(t *testing.T) {
	chunks := SplitMarkdown("just some text\n\nwith paragraphs")

	require.Len(t, chunks, 1)
	assert.Equal(t, "just some text\n\nwith paragraphs", chunks[0].Text)
}

func TestSplitMarkdownEmptyInput(t *testing.T) {
	assert.Empty(t, SplitMarkdown(""))
	assert.Empty(t, SplitMarkdown("\n\n \n"))
}

func TestSplitMarkdownHeaderOnlySectionKeepsHeaderLine(t *testing.T) {
	chunks := SplitMarkdown("# Lonely Header")

	require.Len(t, chunks, 1)
	assert.Equal(t, "# Lonely Header", chunks[0].Text)
	assert.Equal(t, map[string]string{"Header 1": "Lonely Header"}, chunks[0].Headers)
}
