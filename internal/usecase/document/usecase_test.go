package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medassist/claims-backend/internal/config"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/medassist/claims-backend/internal/index"
	"github.com/medassist/claims-backend/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmbedder struct {
	dimension int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dimension), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dimension)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

type fakeIndex struct {
	upserted  []index.Entry
	deleted   []string
	delCount  int
	upsertErr error
}

func (f *fakeIndex) Upsert(entries []index.Entry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, entries...)
	return nil
}

func (f *fakeIndex) Delete(documentID string) (int, error) {
	f.deleted = append(f.deleted, documentID)
	return f.delCount, nil
}

type fakeRetrieval struct {
	result     *entity.QueryResult
	err        error
	delay      time.Duration
	lastFilter entity.RetrievalFilter
}

func (f *fakeRetrieval) Answer(ctx context.Context, question string, filter entity.RetrievalFilter) (*entity.QueryResult, error) {
	f.lastFilter = filter
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func newTestUsecase(idx *fakeIndex, retrieval *fakeRetrieval) *DocumentUsecase {
	ingestCfg := config.IngestConfig{
		ChunkSize:        100,
		ChunkOverlap:     20,
		MaxDocumentBytes: 1 << 20,
	}
	retrievalCfg := config.RetrievalConfig{
		TopK:              3,
		ContextCharBudget: 6000,
		QueryTimeout:      time.Second,
	}
	return NewUsecase(
		ingestCfg,
		retrievalCfg,
		&fakeEmbedder{dimension: 4},
		idx,
		retrieval,
		validator.NewValidator(ingestCfg),
		zap.NewNop(),
	)
}

func TestIngestDocument(t *testing.T) {
	idx := &fakeIndex{}
	uc := newTestUsecase(idx, &fakeRetrieval{})

	text := strings.Repeat("The policy covers outpatient procedures. ", 10)
	resp, err := uc.IngestDocument(context.Background(), &entity.IngestDocumentRequest{
		DocumentID: "doc-1",
		Text:       text,
		Metadata:   entity.DocumentMetadata{Filename: "policy.pdf", DocumentType: entity.DocumentTypePolicy},
	})
	require.NoError(t, err)

	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, len(idx.upserted), resp.ChunksAdded)
	require.NotEmpty(t, idx.upserted)

	for i, e := range idx.upserted {
		assert.Equal(t, "doc-1", e.DocumentID)
		assert.Equal(t, i, e.Position)
		assert.Contains(t, e.ChunkID, "doc-1:")
		assert.Equal(t, "policy.pdf", e.Metadata.Filename)
		assert.Len(t, e.Embedding, 4)
	}
}

func TestIngestDocument_GeneratesID(t *testing.T) {
	idx := &fakeIndex{}
	uc := newTestUsecase(idx, &fakeRetrieval{})

	resp, err := uc.IngestDocument(context.Background(), &entity.IngestDocumentRequest{
		Text:     "short note",
		Metadata: entity.DocumentMetadata{Filename: "note.txt"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.DocumentID)

	// Default document type is applied when omitted
	require.NotEmpty(t, idx.upserted)
	assert.Equal(t, entity.DocumentTypeOther, idx.upserted[0].Metadata.DocumentType)
}

func TestIngestDocument_EmptyTextRejected(t *testing.T) {
	uc := newTestUsecase(&fakeIndex{}, &fakeRetrieval{})

	_, err := uc.IngestDocument(context.Background(), &entity.IngestDocumentRequest{
		Text:     "  ",
		Metadata: entity.DocumentMetadata{Filename: "empty.pdf"},
	})
	assert.ErrorIs(t, err, entity.ErrEmptyDocument)
}

func TestIngestDocument_IndexFailurePropagates(t *testing.T) {
	indexErr := errors.New("disk full")
	uc := newTestUsecase(&fakeIndex{upsertErr: indexErr}, &fakeRetrieval{})

	_, err := uc.IngestDocument(context.Background(), &entity.IngestDocumentRequest{
		Text:     "some text",
		Metadata: entity.DocumentMetadata{Filename: "x.pdf"},
	})
	assert.ErrorIs(t, err, indexErr)
}

func TestQuery(t *testing.T) {
	retrieval := &fakeRetrieval{result: &entity.QueryResult{Answer: "yes", Sources: []entity.Source{}}}
	uc := newTestUsecase(&fakeIndex{}, retrieval)

	result, err := uc.Query(context.Background(), &entity.QueryRequest{
		Question:    "Is it covered?",
		DocumentIDs: []string{"doc-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "yes", result.Answer)
	assert.Equal(t, []string{"doc-1"}, retrieval.lastFilter.DocumentIDs)
}

func TestQuery_MissingQuestion(t *testing.T) {
	uc := newTestUsecase(&fakeIndex{}, &fakeRetrieval{})

	_, err := uc.Query(context.Background(), &entity.QueryRequest{})
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestQuery_TimeoutMapped(t *testing.T) {
	retrieval := &fakeRetrieval{delay: 5 * time.Second}
	uc := newTestUsecase(&fakeIndex{}, retrieval)
	uc.retrievalCfg.QueryTimeout = 20 * time.Millisecond

	_, err := uc.Query(context.Background(), &entity.QueryRequest{Question: "slow?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrTimeout)
}

func TestPurgeDocument(t *testing.T) {
	idx := &fakeIndex{delCount: 7}
	uc := newTestUsecase(idx, &fakeRetrieval{})

	resp, err := uc.PurgeDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Removed)
	assert.Equal(t, []string{"doc-1"}, idx.deleted)

	// Purging an unknown document reports zero removals
	idx.delCount = 0
	resp, err = uc.PurgeDocument(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, resp.Removed)
}
