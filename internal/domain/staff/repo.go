package staff

import "context"

type Repository interface {
	ListByBranch(ctx context.Context, branch string) ([]*Employee, error)
}
