package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitParagraphsSingleChunkWhenEverythingFits(t *testing.T) {
	chunks := SplitParagraphs("A.\n\nB.", 100, 0)

	require.Len(t, chunks, 1)
	assert.Equal(t, "A.\n\nB.", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Num)
	assert.Equal(t, 1, chunks[0].Total)
}

func TestSplitParagraphsSplitsAtParagraphBoundary(t *testing.T) {
	chunks := SplitParagraphs("A.\n\nB.", 2, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, "A.", chunks[0].Text)
	assert.Equal(t, "B.", chunks[1].Text)
	assert.Equal(t, 1, chunks[0].Num)
	assert.Equal(t, 2, chunks[1].Num)
	assert.Equal(t, 2, chunks[0].Total)
	assert.Equal(t, 2, chunks[1].Total)
}

func TestSplitParagraphsEmptyInput(t *testing.T) {
	assert.Empty(t, SplitParagraphs("", 100, 0))
	assert.Empty(t, SplitParagraphs("\n\n  \n\n", 100, 0))
}

func TestSplitParagraphsNoParagraphBreaks(t *testing.T) {
	text := "one single paragraph without any blank lines"
	chunks := SplitParagraphs(text, 10, 0)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSplitParagraphsOverlapRepeatsLastParagraph(t *testing.T) {
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"
	chunks := SplitParagraphs(text, 25, 5)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevParas := strings.Split(chunks[i-1].Text, "\n\n")
		lastPara := prevParas[len(prevParas)-1]
		assert.True(t, strings.HasPrefix(chunks[i].Text, lastPara),
			"chunk %d should start with the last paragraph of chunk %d", i+1, i)
	}
}

func TestSplitParagraphsOversizedParagraphKeptWhole(t *testing.T) {
	long := strings.Repeat("x", 50)
	chunks := SplitParagraphs("short\n\n"+long, 10, 0)

	require.Len(t, chunks, 2)
	assert.Equal(t, "short", chunks[0].Text)
	assert.Equal(t, long, chunks[1].Text)
}

func TestSplitParagraphsNeverEmptyAndOrderPreserving(t *testing.T) {
	text := "alpha\n\nbravo\n\ncharlie\n\ndelta\n\necho"

	for _, tc := range []struct{ size, overlap int }{
		{5, 0}, {10, 0}, {12, 6}, {100, 50}, {1, 0},
	} {
		chunks := SplitParagraphs(text, tc.size, tc.overlap)
		require.NotEmpty(t, chunks, "size=%d overlap=%d", tc.size, tc.overlap)

		joined := ""
		for _, c := range chunks {
			assert.NotEmpty(t, c.Text, "size=%d overlap=%d", tc.size, tc.overlap)
			joined += c.Text + "\n\n"
		}
		// Every original paragraph appears, in order.
		pos := 0
		for _, para := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
			idx := strings.Index(joined[pos:], para)
			require.GreaterOrEqual(t, idx, 0, "paragraph %q missing (size=%d overlap=%d)", para, tc.size, tc.overlap)
			pos += idx + len(para)
		}
	}
}
