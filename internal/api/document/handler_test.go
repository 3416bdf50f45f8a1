package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	ingestResp *entity.IngestDocumentResponse
	queryResp  *entity.QueryResult
	purgeResp  *entity.PurgeDocumentResponse
	err        error
}

func (f *fakeUsecase) IngestDocument(ctx context.Context, req *entity.IngestDocumentRequest) (*entity.IngestDocumentResponse, error) {
	return f.ingestResp, f.err
}

func (f *fakeUsecase) Query(ctx context.Context, req *entity.QueryRequest) (*entity.QueryResult, error) {
	return f.queryResp, f.err
}

func (f *fakeUsecase) PurgeDocument(ctx context.Context, documentID string) (*entity.PurgeDocumentResponse, error) {
	return f.purgeResp, f.err
}

func newTestRouter(uc DocumentUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc))
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIngestDocument_Created(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		ingestResp: &entity.IngestDocumentResponse{DocumentID: "doc-1", ChunksAdded: 4},
	})

	rec := doJSON(t, router, http.MethodPost, "/documents/", entity.IngestDocumentRequest{
		Text:     "policy text",
		Metadata: entity.DocumentMetadata{Filename: "policy.pdf"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp entity.IngestDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, 4, resp.ChunksAdded)
}

func TestIngestDocument_MalformedBody(t *testing.T) {
	router := newTestRouter(&fakeUsecase{})

	req := httptest.NewRequest(http.MethodPost, "/documents/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_ReturnsAnswerWithSources(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		queryResp: &entity.QueryResult{
			Answer:  "The deductible is $2500.",
			Sources: []entity.Source{{Text: "chunk", Score: 0.9}},
		},
	})

	rec := doJSON(t, router, http.MethodPost, "/query", entity.QueryRequest{Question: "deductible?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "The deductible is $2500.", resp.Answer)
	require.Len(t, resp.Sources, 1)
}

func TestQuery_NilSourcesSerializeAsEmptyArray(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		queryResp: &entity.QueryResult{Answer: "nothing found"},
	})

	rec := doJSON(t, router, http.MethodPost, "/query", entity.QueryRequest{Question: "q"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "generation failure is a bad gateway",
			err:        &entity.GenerationError{Err: errors.New("model crashed"), Sources: []entity.Source{{Text: "partial"}}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "timeout is a gateway timeout",
			err:        entity.ErrTimeout,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "unavailable backend is service unavailable",
			err:        entity.ErrModelUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "missing question is a bad request",
			err:        entity.ErrMissingField,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown errors stay internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeUsecase{err: tt.err})
			rec := doJSON(t, router, http.MethodPost, "/query", entity.QueryRequest{Question: "q"})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestQuery_GenerationFailureExposesSources(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		err: &entity.GenerationError{
			Err:     errors.New("model crashed"),
			Sources: []entity.Source{{Text: "retrieved chunk", Score: 0.8}},
		},
	})

	rec := doJSON(t, router, http.MethodPost, "/query", entity.QueryRequest{Question: "q"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Error   string `json:"error"`
		Details struct {
			Sources []entity.Source `json:"sources"`
		} `json:"details"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Error)
	require.Len(t, resp.Details.Sources, 1)
	assert.Equal(t, "retrieved chunk", resp.Details.Sources[0].Text)
}

func TestPurgeDocument(t *testing.T) {
	router := newTestRouter(&fakeUsecase{
		purgeResp: &entity.PurgeDocumentResponse{Removed: 3},
	})

	rec := doJSON(t, router, http.MethodDelete, "/documents/doc-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.PurgeDocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Removed)
}
