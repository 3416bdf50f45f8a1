package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/medassist/claims-backend/internal/chunker"
	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/medassist/claims-backend/internal/index"
	"github.com/medassist/claims-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

// DocumentUsecase implements ingestion, querying and purging of
// documents
type DocumentUsecase struct {
	ingestCfg    config.IngestConfig
	retrievalCfg config.RetrievalConfig
	embedder     EmbeddingConnector
	vectorIndex  VectorIndex
	retrieval    RetrievalEngine
	validator    *validator.Validator
	logger       *zap.Logger
}

// NewUsecase creates a new document use case
func NewUsecase(
	ingestCfg config.IngestConfig,
	retrievalCfg config.RetrievalConfig,
	embedder EmbeddingConnector,
	vectorIndex VectorIndex,
	retrieval RetrievalEngine,
	validator *validator.Validator,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		ingestCfg:    ingestCfg,
		retrievalCfg: retrievalCfg,
		embedder:     embedder,
		vectorIndex:  vectorIndex,
		retrieval:    retrieval,
		validator:    validator,
		logger:       logger,
	}
}

// IngestDocument chunks the extracted text, embeds every chunk and
// writes the entries to the vector index. Failures are scoped to this
// document; other documents in the index are never affected.
func (uc *DocumentUsecase) IngestDocument(ctx context.Context, req *entity.IngestDocumentRequest) (*entity.IngestDocumentResponse, error) {
	if err := uc.validator.ValidateIngest(req); err != nil {
		return nil, err
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.New().String()
	}

	metadata := req.Metadata
	if metadata.DocumentType == "" {
		metadata.DocumentType = entity.DocumentTypeOther
	}

	chunks, err := chunker.Chunk(req.Text, uc.ingestCfg.ChunkSize, uc.ingestCfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptyDocument, metadata.Filename)
	}

	ctxzap.Info(ctx, "document chunked",
		zap.String("document_id", documentID),
		zap.Int("chunks", len(chunks)),
	)

	vectors, err := uc.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	entries := make([]index.Entry, len(chunks))
	for i, text := range chunks {
		entries[i] = index.Entry{
			ChunkID:    fmt.Sprintf("%s:%d", documentID, i),
			DocumentID: documentID,
			Position:   i,
			Text:       text,
			Embedding:  vectors[i],
			Metadata:   metadata,
		}
	}

	if err := uc.vectorIndex.Upsert(entries); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	ctxzap.Info(ctx, "document ingested",
		zap.String("document_id", documentID),
		zap.String("filename", metadata.Filename),
		zap.Int("chunks_added", len(entries)),
	)

	return &entity.IngestDocumentResponse{
		DocumentID:  documentID,
		ChunksAdded: len(entries),
	}, nil
}

// Query answers a question over the indexed documents within the
// configured wall-clock budget
func (uc *DocumentUsecase) Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error) {
	if err := uc.validator.ValidateQuery(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.retrievalCfg.QueryTimeout)
	defer cancel()

	result, err := uc.retrieval.Answer(ctx, req.Question, entity.RetrievalFilter{DocumentIDs: req.DocumentIDs})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, entity.ErrTimeout) {
			return nil, fmt.Errorf("%w: query exceeded %s", entity.ErrTimeout, uc.retrievalCfg.QueryTimeout)
		}
		return nil, err
	}

	return result, nil
}

// PurgeDocument removes every chunk of the document from the index
func (uc *DocumentUsecase) PurgeDocument(ctx context.Context, documentID string) (*entity.PurgeDocumentResponse, error) {
	removed, err := uc.vectorIndex.Delete(documentID)
	if err != nil {
		return nil, fmt.Errorf("purge document: %w", err)
	}

	ctxzap.Info(ctx, "document purged",
		zap.String("document_id", documentID),
		zap.Int("removed", removed),
	)

	return &entity.PurgeDocumentResponse{Removed: removed}, nil
}
