package catalog

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo         Repository
	suggestLimit int
}

func NewService(repo Repository, suggestLimit int) *Service {
	if suggestLimit <= 0 {
		suggestLimit = 10
	}
	return &Service{repo: repo, suggestLimit: suggestLimit}
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("product id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Suggest returns typeahead candidates for a partial product id or name.
// An empty query yields no candidates rather than the whole catalog.
func (s *Service) Suggest(ctx context.Context, query string, field SuggestField) ([]*Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if field != SuggestByName {
		field = SuggestByID
	}
	return s.repo.Suggest(ctx, query, field, s.suggestLimit)
}

// Resolve performs the exact-match shortcut used by the order form: if the
// suggestions contain a single product whose key equals the typed value, the
// full product is returned; otherwise nil.
func (s *Service) Resolve(ctx context.Context, value string, field SuggestField) (*Product, error) {
	suggestions, err := s.Suggest(ctx, value, field)
	if err != nil {
		return nil, err
	}
	if len(suggestions) != 1 {
		return nil, nil
	}
	p := suggestions[0]
	if field == SuggestByName && p.Name != value {
		return nil, nil
	}
	if field == SuggestByID && p.ID != value {
		return nil, nil
	}
	return p, nil
}
