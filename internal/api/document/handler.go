package document

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/medassist/claims-backend/internal/pkg/logger"
	"github.com/medassist/claims-backend/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	usecase DocumentUsecase
}

func NewHandler(usecase DocumentUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// IngestDocument handles POST /documents
func (h *Handler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "IngestDocument")

	var req entity.IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.usecase.IngestDocument(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, resp)
}

// Query handles POST /query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.usecase.Query(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toQueryResponse(result))
}

// PurgeDocument handles DELETE /documents/{document_id}
func (h *Handler) PurgeDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "PurgeDocument")

	documentID := chi.URLParam(r, "document_id")
	if documentID == "" {
		response.Error(w, http.StatusBadRequest, "document_id is required")
		return
	}

	resp, err := h.usecase.PurgeDocument(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var genErr *entity.GenerationError

	switch {
	case errors.As(err, &genErr):
		// Partial success: retrieval worked, synthesis did not
		ctxzap.Error(ctx, "answer generation failed", zap.Error(err))
		response.ErrorWithDetails(w, http.StatusBadGateway, err.Error(), map[string]any{
			"sources": genErr.Sources,
		})
	case errors.Is(err, entity.ErrTimeout):
		ctxzap.Error(ctx, "query timed out", zap.Error(err))
		response.Error(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, entity.ErrModelUnavailable):
		ctxzap.Error(ctx, "model backend unavailable", zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, entity.ErrDocumentNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrInvalidConfig),
		errors.Is(err, entity.ErrEmptyDocument),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter):
		ctxzap.Warn(ctx, "invalid request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		ctxzap.Error(ctx, "internal error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
