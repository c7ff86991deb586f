package insurance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepoPG(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

func (r *policyRepoPG) GetByMRNumber(ctx context.Context, mrNumber string) (*Policy, error) {
	var p Policy
	err := r.pool.QueryRow(ctx, `
		SELECT id, mr_number, s_id_cr, insurer, rate, department, attending, created_at
		FROM insurance WHERE mr_number = $1`, mrNumber).
		Scan(&p.ID, &p.MRNumber, &p.PolicyID, &p.Insurer, &p.Rate, &p.Department, &p.Attending, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type billingRepoPG struct{ pool *pgxpool.Pool }

func NewBillingRepoPG(pool *pgxpool.Pool) BillingRepository { return &billingRepoPG{pool: pool} }

func (r *billingRepoPG) GetByPolicyID(ctx context.Context, policyID string) (*BillingRecord, error) {
	var b BillingRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, s_id_cr, work_order_id, mr_number, insurance_name,
		       total_amount, approved_amount, employee, branch, created_at
		FROM reception_billing WHERE s_id_cr = $1
		ORDER BY created_at DESC LIMIT 1`, policyID).
		Scan(&b.ID, &b.PolicyID, &b.OrderID, &b.MRNumber, &b.InsurerName,
			&b.TotalAmount, &b.ApprovedAmount, &b.Employee, &b.Branch, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *billingRepoPG) Create(ctx context.Context, rec *BillingRecord) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reception_billing (id, s_id_cr, work_order_id, mr_number, insurance_name,
			total_amount, approved_amount, employee, branch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.PolicyID, rec.OrderID, rec.MRNumber, rec.InsurerName,
		rec.TotalAmount, rec.ApprovedAmount, rec.Employee, rec.Branch)
	return err
}
