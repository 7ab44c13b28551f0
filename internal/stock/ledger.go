package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("stock pool not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Selection names the stock pool an operation applies to: the base product,
// one of its variants, or one of its colors. Variant wins over color.
type Selection struct {
	ProductID    string
	VariantLabel string
	ColorName    string
}

// Querier is the subset of pgx methods the ledger needs. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so every operation can run standalone or inside a
// caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Ledger maintains per-product available-quantity counters and the sold_count
// ranking counter. All mutations keep stock >= 0: the guard and the decrement
// are a single conditional UPDATE, so two concurrent orders cannot both win
// the last unit.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// CheckAvailable resolves the selection's stock pool and returns its current
// quantity without mutating anything.
func (l *Ledger) CheckAvailable(ctx context.Context, q Querier, sel Selection) (int, error) {
	var (
		available int
		err       error
	)
	switch {
	case sel.VariantLabel != "":
		err = q.QueryRow(ctx, `
			SELECT stock FROM product_variants WHERE product_id = $1 AND label = $2
		`, sel.ProductID, sel.VariantLabel).Scan(&available)
	case sel.ColorName != "":
		err = q.QueryRow(ctx, `
			SELECT stock FROM product_colors WHERE product_id = $1 AND name = $2
		`, sel.ProductID, sel.ColorName).Scan(&available)
	default:
		err = q.QueryRow(ctx, `
			SELECT stock FROM products WHERE id = $1
		`, sel.ProductID).Scan(&available)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("select stock: %w", err)
	}
	return available, nil
}

// Decrement subtracts qty from the resolved pool. The aggregate product stock
// moves together with a variant/color pool so it stays the sum of its pools.
// Returns ErrInsufficientStock when the pool holds fewer than qty units and
// ErrNotFound when the selection does not exist; nothing is clamped.
func (l *Ledger) Decrement(ctx context.Context, q Querier, sel Selection, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %d", qty)
	}

	if sel.VariantLabel != "" || sel.ColorName != "" {
		var (
			tag pgconn.CommandTag
			err error
		)
		if sel.VariantLabel != "" {
			tag, err = q.Exec(ctx, `
				UPDATE product_variants SET stock = stock - $3
				WHERE product_id = $1 AND label = $2 AND stock >= $3
			`, sel.ProductID, sel.VariantLabel, qty)
		} else {
			tag, err = q.Exec(ctx, `
				UPDATE product_colors SET stock = stock - $3
				WHERE product_id = $1 AND name = $2 AND stock >= $3
			`, sel.ProductID, sel.ColorName, qty)
		}
		if err != nil {
			return fmt.Errorf("decrement pool: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return l.classifyFailure(ctx, q, sel)
		}
	}

	tag, err := q.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, sel.ProductID, qty)
	if err != nil {
		return fmt.Errorf("decrement product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return l.classifyFailure(ctx, q, Selection{ProductID: sel.ProductID})
	}
	return nil
}

// classifyFailure distinguishes a missing pool from a short one after a
// conditional update touched no rows.
func (l *Ledger) classifyFailure(ctx context.Context, q Querier, sel Selection) error {
	if _, err := l.CheckAvailable(ctx, q, sel); err != nil {
		return err
	}
	return ErrInsufficientStock
}

// Increment adds qty back to the resolved pool, used when an order is
// cancelled. There is no upper bound.
func (l *Ledger) Increment(ctx context.Context, q Querier, sel Selection, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %d", qty)
	}

	if sel.VariantLabel != "" || sel.ColorName != "" {
		var (
			tag pgconn.CommandTag
			err error
		)
		if sel.VariantLabel != "" {
			tag, err = q.Exec(ctx, `
				UPDATE product_variants SET stock = stock + $3
				WHERE product_id = $1 AND label = $2
			`, sel.ProductID, sel.VariantLabel, qty)
		} else {
			tag, err = q.Exec(ctx, `
				UPDATE product_colors SET stock = stock + $3
				WHERE product_id = $1 AND name = $2
			`, sel.ProductID, sel.ColorName, qty)
		}
		if err != nil {
			return fmt.Errorf("increment pool: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	tag, err := q.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, sel.ProductID, qty)
	if err != nil {
		return fmt.Errorf("increment product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordSale bumps the best-selling counter after a successful decrement.
func (l *Ledger) RecordSale(ctx context.Context, q Querier, productID string, qty int) error {
	_, err := q.Exec(ctx, `
		UPDATE products SET sold_count = sold_count + $2 WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("record sale: %w", err)
	}
	return nil
}

// UnrecordSale reverses RecordSale on cancellation, flooring at zero.
func (l *Ledger) UnrecordSale(ctx context.Context, q Querier, productID string, qty int) error {
	_, err := q.Exec(ctx, `
		UPDATE products SET sold_count = GREATEST(sold_count - $2, 0) WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("unrecord sale: %w", err)
	}
	return nil
}
