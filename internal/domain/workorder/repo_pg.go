package workorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opticare/billing/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const orderColumns = `
	id, branch, work_order_id, kind, mr_number, customer_id, customer_name,
	phone_number, address, age, gender, lines, payment_method, discount,
	advance, subtotal, cgst, sgst, grand_total, total_amount, balance_due,
	b2b, gst_number, employee, s_id_cr, approved_amount, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var lines []byte
	err := row.Scan(&o.ID, &o.Branch, &o.OrderID, &o.Kind, &o.MRNumber, &o.CustomerID,
		&o.Name, &o.Phone, &o.Address, &o.Age, &o.Gender, &lines, &o.PaymentMethod,
		&o.Discount, &o.Advance, &o.Subtotal, &o.CGST, &o.SGST, &o.GrandTotal,
		&o.TotalAmount, &o.BalanceDue, &o.B2B, &o.GSTNumber, &o.Employee,
		&o.PolicyID, &o.ApprovedAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("decode order lines: %w", err)
		}
	}
	return &o, nil
}

func (r *repoPG) MaxOrderID(ctx context.Context, branch string) (int64, bool, error) {
	var max int64
	err := r.pool.QueryRow(ctx, `
		SELECT work_order_id FROM work_orders
		WHERE branch = $1 ORDER BY work_order_id DESC LIMIT 1`, branch).Scan(&max)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return max, true, nil
}

func (r *repoPG) Insert(ctx context.Context, o *Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("encode order lines: %w", err)
	}
	o.ID = uuid.New()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO work_orders (id, branch, work_order_id, kind, mr_number,
			customer_id, customer_name, phone_number, address, age, gender,
			lines, payment_method, discount, advance, subtotal, cgst, sgst,
			grand_total, total_amount, balance_due, b2b, gst_number, employee,
			s_id_cr, approved_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		o.ID, o.Branch, o.OrderID, o.Kind, o.MRNumber, o.CustomerID, o.Name,
		o.Phone, o.Address, o.Age, o.Gender, lines, o.PaymentMethod, o.Discount,
		o.Advance, o.Subtotal, o.CGST, o.SGST, o.GrandTotal, o.TotalAmount,
		o.BalanceDue, o.B2B, o.GSTNumber, o.Employee, o.PolicyID, o.ApprovedAmount)
	return err
}

func (r *repoPG) Update(ctx context.Context, o *Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("encode order lines: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE work_orders SET mr_number = $3, customer_id = $4,
			customer_name = $5, phone_number = $6, address = $7, age = $8,
			gender = $9, lines = $10, payment_method = $11, discount = $12,
			advance = $13, subtotal = $14, cgst = $15, sgst = $16,
			grand_total = $17, total_amount = $18, balance_due = $19,
			b2b = $20, gst_number = $21, employee = $22, s_id_cr = $23,
			approved_amount = $24, updated_at = now()
		WHERE branch = $1 AND work_order_id = $2`,
		o.Branch, o.OrderID, o.MRNumber, o.CustomerID, o.Name, o.Phone,
		o.Address, o.Age, o.Gender, lines, o.PaymentMethod, o.Discount,
		o.Advance, o.Subtotal, o.CGST, o.SGST, o.GrandTotal, o.TotalAmount,
		o.BalanceDue, o.B2B, o.GSTNumber, o.Employee, o.PolicyID, o.ApprovedAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Get(ctx context.Context, branch string, orderID int64) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM work_orders
		WHERE branch = $1 AND work_order_id = $2`, branch, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repoPG) List(ctx context.Context, branch string, p pagination.Params) ([]*Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM work_orders WHERE branch = $1`, branch).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM work_orders
		WHERE branch = $1 ORDER BY created_at DESC `+p.SQL(), branch)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}
