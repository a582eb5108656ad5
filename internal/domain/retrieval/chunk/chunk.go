// Package chunk splits long text into overlapping windows that fit the embedding input limit.
package chunk

import (
	"fmt"
	"strings"
	"unicode"
)

// Default window sizes, in runes.
const (
	DefaultSize    = 3200
	DefaultOverlap = 400
)

// Chunk is one window of the source text.
type Chunk struct {
	Index   int
	Content string
}

// Splitter cuts text into windows of at most Size runes. Consecutive windows
// share Overlap runes.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the window geometry.
func NewSplitter(size, overlap int) (Splitter, error) {
	if size <= 0 {
		return Splitter{}, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return Splitter{}, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return Splitter{size: size, overlap: overlap}, nil
}

// Split returns the windows for text. Blank text yields no chunks. Text that
// fits in one window is returned as a single chunk. A window end is pulled back
// to the last whitespace in its second half so words are not cut.
func (s Splitter) Split(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.size {
		return []Chunk{{Index: 0, Content: text}}
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := min(start+s.size, len(runes))
		if end < len(runes) {
			end = breakPoint(runes, start, end)
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Content: content})
		}

		if end == len(runes) {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func breakPoint(runes []rune, start, end int) int {
	floor := start + (end-start)/2
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

// Embedded is a chunk paired with its embedding, ready to be written to a namespace.
type Embedded struct {
	Chunk
	Vector []float32
}
