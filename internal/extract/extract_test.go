package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextPlain(t *testing.T) {
	out, err := Text([]byte("Alpha Beta Gamma"), "notes.txt")
	require.NoError(t, err)
	require.Equal(t, "Alpha Beta Gamma", out)
}

func TestTextPlainInvalidUTF8(t *testing.T) {
	_, err := Text([]byte{0xff, 0xfe, 0xfd}, "broken.txt")
	require.ErrorIs(t, err, ErrCorruptDocument)
}

func TestTextMarkdown(t *testing.T) {
	md := "# Title\n\nFirst paragraph here.\n\n- item one\n- item two\n\n```go\nfmt.Println(\"hi\")\n```\n"
	out, err := Text([]byte(md), "doc.md")
	require.NoError(t, err)
	require.Contains(t, out, "Title")
	require.Contains(t, out, "First paragraph here.")
	require.Contains(t, out, "item one")
	require.Contains(t, out, `fmt.Println("hi")`)
	require.NotContains(t, out, "```")
}

func TestTextUnsupportedExtension(t *testing.T) {
	_, err := Text([]byte("whatever"), "image.png")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = Text([]byte("whatever"), "noext")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTextCorruptPDF(t *testing.T) {
	_, err := Text([]byte("definitely not a pdf"), "file.pdf")
	require.ErrorIs(t, err, ErrCorruptDocument)
}
