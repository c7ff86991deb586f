package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no product matches the given key.
var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByName(ctx context.Context, name string) (*Product, error)
	Suggest(ctx context.Context, query string, field SuggestField, limit int) ([]*Product, error)
}
