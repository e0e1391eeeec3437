// Package chunker splits raw document text into overlapping fixed-size
// segments, the unit of embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig indicates bad chunking parameters. The call is rejected
// before any work is done.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Split advances a window of length size across text with stride
// size - overlap and returns the successive substrings, in order.
//
// Text no longer than size yields a single chunk equal to the trimmed text.
// Empty or whitespace-only text yields no chunks, which is a valid outcome;
// callers decide whether that rejects the ingestion. The final chunk may be
// shorter than size and is always emitted, even when it falls at or below
// the overlap length. Split is deterministic: identical inputs produce an
// identical sequence.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, size, overlap)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	// Windows are measured in runes so multi-byte scripts never split
	// mid-character.
	runes := []rune(trimmed)
	if len(runes) <= size {
		return []string{trimmed}, nil
	}

	stride := size - overlap
	chunks := make([]string, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
