package modification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("modification request not found")

type Repository interface {
	// FindLatestOpen returns the most recent pending or approved request
	// for the given order, or ErrNotFound when none exists.
	FindLatestOpen(ctx context.Context, orderID int64, orderType string) (*Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
