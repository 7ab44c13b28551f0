package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("product not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	Get(ctx context.Context, productID string) (*Product, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, description, price, stock, sold_count, is_active, created_at, updated_at
		FROM products WHERE id = $1
	`, productID).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.Stock, &p.SoldCount, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	if err := r.loadVariants(ctx, &p); err != nil {
		return nil, err
	}
	if err := r.loadColors(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) loadVariants(ctx context.Context, p *Product) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, label, price, stock FROM product_variants WHERE product_id = $1 ORDER BY label
	`, p.ID)
	if err != nil {
		return fmt.Errorf("select variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.Label, &v.Price, &v.Stock); err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	return rows.Err()
}

func (r *PostgresRepository) loadColors(ctx context.Context, p *Product) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, code, stock FROM product_colors WHERE product_id = $1 ORDER BY name
	`, p.ID)
	if err != nil {
		return fmt.Errorf("select colors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Color
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Stock); err != nil {
			return fmt.Errorf("scan color: %w", err)
		}
		p.Colors = append(p.Colors, c)
	}
	return rows.Err()
}
