package modification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) FindLatestOpen(ctx context.Context, orderID int64, orderType string) (*Request, error) {
	var req Request
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_id, order_type, status, COALESCE(reason, ''), created_at, updated_at
		FROM modification_requests
		WHERE order_id = $1 AND order_type = $2 AND status IN ('pending', 'approved')
		ORDER BY created_at DESC LIMIT 1`, orderID, orderType).
		Scan(&req.ID, &req.OrderID, &req.OrderType, &req.Status, &req.Reason, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE modification_requests SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
