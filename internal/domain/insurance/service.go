package insurance

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	policies PolicyRepository
	billing  BillingRepository
}

func NewService(policies PolicyRepository, billing BillingRepository) *Service {
	return &Service{policies: policies, billing: billing}
}

// PolicyIDByMR resolves the policy identifier associated with an MR number.
func (s *Service) PolicyIDByMR(ctx context.Context, mrNumber string) (string, error) {
	mrNumber = strings.TrimSpace(mrNumber)
	if mrNumber == "" {
		return "", fmt.Errorf("mr number is required")
	}
	p, err := s.policies.GetByMRNumber(ctx, mrNumber)
	if err != nil {
		return "", err
	}
	return p.PolicyID, nil
}

// ApprovedAmount fetches the adjudicated amount for a policy identifier from
// the most recent reception billing record.
func (s *Service) ApprovedAmount(ctx context.Context, policyID string) (float64, error) {
	policyID = strings.TrimSpace(policyID)
	if policyID == "" {
		return 0, fmt.Errorf("policy id is required")
	}
	rec, err := s.billing.GetByPolicyID(ctx, policyID)
	if err != nil {
		return 0, err
	}
	return rec.ApprovedAmount, nil
}

// RecordBilling writes a reception billing row; this is the finalize action
// of the insurance claim flow. The policy id may be absent, rows are also
// addressed by order id and MR number.
func (s *Service) RecordBilling(ctx context.Context, rec *BillingRecord) error {
	if strings.TrimSpace(rec.Branch) == "" {
		return fmt.Errorf("branch is required")
	}
	return s.billing.Create(ctx, rec)
}
