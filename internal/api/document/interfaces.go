package document

import (
	"context"

	"github.com/medassist/claims-backend/internal/entity"
)

type DocumentUsecase interface {
	IngestDocument(ctx context.Context, req *entity.IngestDocumentRequest) (*entity.IngestDocumentResponse, error)
	Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error)
	PurgeDocument(ctx context.Context, documentID string) (*entity.PurgeDocumentResponse, error)
}
