package chunker

import (
	"fmt"
	"strings"

	"github.com/medassist/claims-backend/internal/entity"
)

// separator classes in preference order: paragraph breaks, line breaks,
// sentence ends, word boundaries
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Chunk splits text into overlapping segments of at most chunkSize
// runes. Cut points prefer paragraph and sentence boundaries inside the
// window and fall back to a hard cut when no boundary fits. Consecutive
// chunks share exactly overlap runes, and every rune of the input lands
// in at least one chunk.
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", entity.ErrInvalidConfig, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", entity.ErrInvalidConfig, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", entity.ErrInvalidConfig, overlap, chunkSize)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}
	if len(runes) <= chunkSize {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Snap to a boundary, but never so far back that the next
		// window would not advance past the shared overlap.
		if cut := boundaryCut(runes, start+overlap+1, end); cut > 0 {
			end = cut
		}

		chunks = append(chunks, string(runes[start:end]))
		start = end - overlap
	}

	return chunks, nil
}

// boundaryCut returns the end position of the rightmost separator in
// (min, max], trying stronger separator classes first. Returns 0 when
// no boundary fits.
func boundaryCut(runes []rune, min, max int) int {
	window := string(runes[:max])
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := len([]rune(window[:idx])) + len([]rune(sep))
		if cut > min {
			return cut
		}
	}
	return 0
}
