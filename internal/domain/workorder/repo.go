package workorder

import (
	"context"

	"github.com/opticare/billing/pkg/pagination"
)

// Repository persists committed orders. Insert surfaces the raw driver
// error on a (branch, work_order_id) uniqueness violation so the commit
// path can classify it as a retryable conflict.
type Repository interface {
	MaxOrderID(ctx context.Context, branch string) (int64, bool, error)
	Insert(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Get(ctx context.Context, branch string, orderID int64) (*Order, error)
	List(ctx context.Context, branch string, p pagination.Params) ([]*Order, int, error)
}
