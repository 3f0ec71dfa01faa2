package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText pulls the plain text layer out of a PDF. The parser panics on
// some malformed files, so the call is fenced with a recover.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCorruptDocument, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrCorruptDocument, i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		// Fall back to the whole-document text stream for PDFs without
		// per-page content trees.
		plain, perr := reader.GetPlainText()
		if perr != nil {
			return "", fmt.Errorf("%w: %v", ErrCorruptDocument, perr)
		}
		raw, rerr := io.ReadAll(plain)
		if rerr != nil {
			return "", fmt.Errorf("%w: %v", ErrCorruptDocument, rerr)
		}
		out = strings.TrimSpace(string(raw))
	}
	return out, nil
}
