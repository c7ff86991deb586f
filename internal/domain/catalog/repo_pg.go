package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const productCols = `product_id, product_name, mrp, hsn_code, created_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.MRP, &p.HSNCode, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE product_id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE product_name = $1`, name))
}

func (r *repoPG) Suggest(ctx context.Context, query string, field SuggestField, limit int) ([]*Product, error) {
	column := "product_id"
	if field == SuggestByName {
		column = "product_name"
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productCols+` FROM products WHERE `+column+` ILIKE '%' || $1 || '%' ORDER BY `+column+` LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.MRP, &p.HSNCode, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
