package document

import (
	"context"

	"github.com/medassist/claims-backend/internal/entity"
	"github.com/medassist/claims-backend/internal/index"
)

// EmbeddingConnector is the shared embedding provider
type EmbeddingConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorIndex is the write/delete side of the persistent index
type VectorIndex interface {
	Upsert(entries []index.Entry) error
	Delete(documentID string) (int, error)
}

// RetrievalEngine answers questions through cached per-filter pipelines
type RetrievalEngine interface {
	Answer(ctx context.Context, question string, filter entity.RetrievalFilter) (*entity.QueryResult, error)
}
