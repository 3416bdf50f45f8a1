package validator

import (
	"fmt"

	"github.com/medassist/claims-backend/internal/entity"
)

// ValidateEstimate checks the estimate request shape. Line item
// amounts themselves are validated by the adjudication engine so the
// rejection happens before any arithmetic, not here.
func (v *Validator) ValidateEstimate(req *entity.EstimateClaimRequest) error {
	if req.PolicyNumber == "" {
		return fmt.Errorf("%w: policy_number", entity.ErrMissingField)
	}
	return nil
}
