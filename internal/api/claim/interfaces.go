package claim

import (
	"context"

	"github.com/medassist/claims-backend/internal/entity"
)

type ClaimUsecase interface {
	AdjudicateClaim(ctx context.Context, req *entity.AdjudicateClaimRequest) (*entity.CoverageResult, error)
	EstimateClaim(ctx context.Context, req *entity.EstimateClaimRequest) (*entity.EstimateClaimResponse, error)
	GetPolicy(ctx context.Context, policyNumber string) (*entity.Policy, error)
}
