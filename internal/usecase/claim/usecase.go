package claim

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/medassist/claims-backend/internal/adjudication"
	"github.com/medassist/claims-backend/internal/entity"
	"github.com/medassist/claims-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

// ClaimUsecase implements claim adjudication flows
type ClaimUsecase struct {
	policyRepo PolicyRepository
	validator  *validator.Validator
	logger     *zap.Logger
}

// NewUsecase creates a new claim use case
func NewUsecase(policyRepo PolicyRepository, validator *validator.Validator, logger *zap.Logger) *ClaimUsecase {
	return &ClaimUsecase{
		policyRepo: policyRepo,
		validator:  validator,
		logger:     logger,
	}
}

// AdjudicateClaim computes the coverage breakdown for line items
// against inline policy terms
func (uc *ClaimUsecase) AdjudicateClaim(ctx context.Context, req *entity.AdjudicateClaimRequest) (*entity.CoverageResult, error) {
	result, err := adjudication.Adjudicate(req.LineItems, req.Policy)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "claim adjudicated",
		zap.Int("line_items", len(req.LineItems)),
		zap.Float64("total_billed", result.TotalBilled),
		zap.Float64("insurance_covers", result.InsuranceCovers),
	)

	return result, nil
}

// EstimateClaim looks up the policy by number and adjudicates the line
// items against its stored terms
func (uc *ClaimUsecase) EstimateClaim(ctx context.Context, req *entity.EstimateClaimRequest) (*entity.EstimateClaimResponse, error) {
	if err := uc.validator.ValidateEstimate(req); err != nil {
		return nil, err
	}

	policy, err := uc.policyRepo.GetByNumber(ctx, req.PolicyNumber)
	if err != nil {
		return nil, err
	}
	if policy.Status != "active" {
		return nil, fmt.Errorf("%w: policy %s is %s", entity.ErrInvalidParameter, policy.PolicyNumber, policy.Status)
	}

	result, err := adjudication.Adjudicate(req.LineItems, policy.Terms)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "claim estimated",
		zap.String("policy_number", policy.PolicyNumber),
		zap.Float64("total_billed", result.TotalBilled),
	)

	return &entity.EstimateClaimResponse{
		PolicyNumber:     policy.PolicyNumber,
		PolicyholderName: policy.PolicyholderName,
		Coverage:         *result,
	}, nil
}

// GetPolicy returns a stored policy by number
func (uc *ClaimUsecase) GetPolicy(ctx context.Context, policyNumber string) (*entity.Policy, error) {
	return uc.policyRepo.GetByNumber(ctx, policyNumber)
}
