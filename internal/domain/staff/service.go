package staff

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Names returns the names of employees attached to a branch, for the
// attribution picker.
func (s *Service) Names(ctx context.Context, branch string) ([]string, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, fmt.Errorf("branch is required")
	}
	employees, err := s.repo.ListByBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(employees))
	for _, e := range employees {
		names = append(names, e.Name)
	}
	return names, nil
}
