package modification

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CompleteForOrder moves the latest open request for the order to completed.
// It reports whether a request was completed; no open request is not an
// error, edits are allowed without one.
func (s *Service) CompleteForOrder(ctx context.Context, orderID int64, orderType string) (bool, error) {
	req, err := s.repo.FindLatestOpen(ctx, orderID, orderType)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.repo.UpdateStatus(ctx, req.ID, StatusCompleted); err != nil {
		return false, err
	}
	return true, nil
}
