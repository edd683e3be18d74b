package chunker

import (
	"fmt"

	"kbrag/internal/domain"
)

// CharChunker splits text into fixed-size rune windows. Each window after the
// first starts overlap runes before the end of the previous one.
type CharChunker struct {
	maxChars int
	overlap  int
}

func NewCharChunker(maxChars, overlap int) (*CharChunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", maxChars, overlap)
	}
	return &CharChunker{
		maxChars: maxChars,
		overlap:  overlap,
	}, nil
}

func (c *CharChunker) Chunk(text string) ([]domain.Chunk, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := c.maxChars - c.overlap
	chunks := make([]domain.Chunk, 0, len(runes)/step+1)

	for start := 0; ; start += step {
		end := start + c.maxChars
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

