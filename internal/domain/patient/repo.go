package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no patient matches the given key.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRNumber(ctx context.Context, mrNumber string) (*Patient, error)
	GetByNamePhone(ctx context.Context, name, phone string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
}
