package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	chunks, err := Split("", DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestSplitShortInput(t *testing.T) {
	chunks, err := Split("hello world", DefaultConfig())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "hello world", chunks[0].Text)
	require.Equal(t, 0, chunks[0].Overlap)
}

func TestSplitBadConfig(t *testing.T) {
	_, err := Split("some text", Config{ChunkSize: 100, ChunkOverlap: 100})
	require.ErrorIs(t, err, ErrBadConfig)
	_, err = Split("some text", Config{ChunkSize: 100, ChunkOverlap: 150})
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma delta. Epsilon zeta eta theta.\n\n", 80)
	cfg := Config{ChunkSize: 300, ChunkOverlap: 60}
	first, err := Split(text, cfg)
	require.NoError(t, err)
	second, err := Split(text, cfg)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Greater(t, len(first), 1)
}

func TestSplitBoundsAndOverlap(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 100)
	cfg := Config{ChunkSize: 200, ChunkOverlap: 50}
	chunks, err := Split(text, cfg)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.LessOrEqual(t, len([]rune(c.Text)), cfg.ChunkSize)
		require.NotEmpty(t, c.Text)
	}
	// Trailing overlap of chunk i equals the head of chunk i+1.
	for i := 1; i < len(chunks); i++ {
		overlap := chunks[i].Overlap
		if overlap == 0 {
			continue
		}
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		require.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]))
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 150) + "\n\n" + strings.Repeat("b", 150)
	chunks, err := Split(text, Config{ChunkSize: 200, ChunkOverlap: 20})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	require.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"))
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks, err := Split(text, Config{ChunkSize: 200, ChunkOverlap: 50})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	require.Len(t, []rune(chunks[0].Text), 200)
	// Reassembling without the overlapping heads restores the input.
	var sb strings.Builder
	for _, c := range chunks {
		runes := []rune(c.Text)
		sb.WriteString(string(runes[c.Overlap:]))
	}
	require.Equal(t, text, sb.String())
}
