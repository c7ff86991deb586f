package insurance

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no policy or billing record matches the key.
var ErrNotFound = errors.New("insurance record not found")

type PolicyRepository interface {
	GetByMRNumber(ctx context.Context, mrNumber string) (*Policy, error)
}

type BillingRepository interface {
	GetByPolicyID(ctx context.Context, policyID string) (*BillingRecord, error)
	Create(ctx context.Context, rec *BillingRecord) error
}
