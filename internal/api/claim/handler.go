package claim

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
	usecase ClaimUsecase
}

func NewHandler(usecase ClaimUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// AdjudicateClaim handles POST /claims/adjudicate
func (h *Handler) AdjudicateClaim(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AdjudicateClaim")

	var req entity.AdjudicateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.usecase.AdjudicateClaim(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, result)
}

// EstimateClaim handles POST /claims/estimate
func (h *Handler) EstimateClaim(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "EstimateClaim")

	var req entity.EstimateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.usecase.EstimateClaim(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, result)
}

// GetPolicy handles GET /policies/{policy_number}
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetPolicy")

	policyNumber := chi.URLParam(r, "policy_number")
	if policyNumber == "" {
		response.Error(w, http.StatusBadRequest, "policy_number is required")
		return
	}

	policy, err := h.usecase.GetPolicy(ctx, policyNumber)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, policy)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidLineItem):
		ctxzap.Warn(ctx, "rejected claim input", zap.Error(err))
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, entity.ErrPolicyNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter):
		ctxzap.Warn(ctx, "invalid request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		ctxzap.Error(ctx, "internal error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
