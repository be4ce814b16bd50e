// Package chunker splits document text into bounded, overlapping windows
// used as the unit of embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates an unusable size/overlap combination.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Chunk is a contiguous span of a document's text.
type Chunk struct {
	Index int    // Position in document (0, 1, 2...)
	Text  string // Window content
}

// Splitter produces fixed-size windows with a configured overlap between
// consecutive windows. Sizes are measured in runes so multibyte text is
// never split mid-character.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. size must be positive and overlap must satisfy
// 0 <= overlap < size, otherwise each window could not advance past the
// previous one.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, size, overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Size returns the configured maximum window length.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured overlap between consecutive windows.
func (s *Splitter) Overlap() int { return s.overlap }

// Split cuts text into successive windows of up to size runes, each window
// after the first starting size-overlap runes past the start of the previous
// one. Concatenating the chunks with the overlap regions de-duplicated
// reconstructs the input exactly. Empty input yields no chunks.
func (s *Splitter) Split(text string) []Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	stride := s.size - s.overlap

	var chunks []Chunk
	for start := 0; start < len(runes); start += stride {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return chunks
}
