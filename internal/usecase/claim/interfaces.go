package claim

import (
	"context"

	"github.com/medassist/claims-backend/internal/entity"
)

// PolicyRepository looks up stored policies for estimate requests
type PolicyRepository interface {
	GetByNumber(ctx context.Context, policyNumber string) (*entity.Policy, error)
	List(ctx context.Context, skip, limit int) ([]*entity.Policy, error)
}
