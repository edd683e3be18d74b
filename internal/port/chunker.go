package port

import "kbrag/internal/domain"

type Chunker interface {
	Chunk(text string) ([]domain.Chunk, error)
}
