package chunker

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var ErrBadConfig = errors.New("chunk overlap must be smaller than chunk size")

type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
}

// Chunk is one bounded slice of extracted document text. Overlap is the
// number of characters shared with the tail of the previous chunk.
type Chunk struct {
	Index   int
	Text    string
	Overlap int
}

// Separators tried from coarsest to finest when looking for a cut point.
// An empty window match falls through to a hard character cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Split breaks text into overlapping chunks of at most cfg.ChunkSize
// characters. It is a pure function: the same input and config always
// produce identical chunk boundaries, which keeps re-indexing idempotent.
func Split(text string, cfg Config) ([]Chunk, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, ErrBadConfig
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= cfg.ChunkSize {
		return []Chunk{{Index: 0, Text: text}}, nil
	}

	var chunks []Chunk
	start := 0
	prevEnd := 0
	for start < len(runes) {
		end := start + cfg.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}
		overlap := 0
		if len(chunks) > 0 {
			overlap = prevEnd - start
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Text:    string(runes[start:end]),
			Overlap: overlap,
		})
		if end == len(runes) {
			break
		}
		next := end - cfg.ChunkOverlap
		if next <= start {
			// Chunk shorter than the overlap, step past it instead of looping.
			next = end
		}
		prevEnd = end
		start = next
	}
	return chunks, nil
}

// cutPoint finds the rightmost separator inside (start, limit] so chunks
// prefer to end on a paragraph, line, sentence or word boundary. When no
// separator fits it falls back to a hard cut at limit.
func cutPoint(runes []rune, start, limit int) int {
	window := string(runes[start:limit])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		return start + utf8.RuneCountInString(window[:idx+len(sep)])
	}
	return limit
}
