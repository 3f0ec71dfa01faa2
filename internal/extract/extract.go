package extract

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("document could not be parsed")
)

// Text extracts plain text from an uploaded document. The format is picked
// from the filename extension; unknown extensions are rejected rather than
// guessed from content.
func Text(data []byte, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".pdf":
		return pdfText(data)
	case ".md", ".markdown":
		return markdownText(data)
	case ".txt", ".text":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: not valid utf-8", ErrCorruptDocument)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
