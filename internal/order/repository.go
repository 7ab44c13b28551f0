package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("order not found")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so writes can join
// the transaction that also moves stock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	CreateTx(ctx context.Context, q Querier, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetForUpdateTx(ctx context.Context, q Querier, orderID string) (*Order, error)
	SetStatusTx(ctx context.Context, q Querier, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

type PostgresRepository struct {
	pool Querier
}

func NewPostgresRepository(pool Querier) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `
	id, user_id, status, items_price, tax_price, shipping_price, total_amount,
	payment_method, payment_status, payment_id, gateway_order_id,
	street, city, state, postal_code, country, notes,
	stock_applied, delivered_at, created_at, updated_at`

// CreateTx inserts the order and its items using the caller's transaction.
func (r *PostgresRepository) CreateTx(ctx context.Context, q Querier, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := q.Exec(ctx, `
		INSERT INTO orders (
			id, user_id, status, items_price, tax_price, shipping_price, total_amount,
			payment_method, payment_status, payment_id, gateway_order_id,
			street, city, state, postal_code, country, notes,
			stock_applied, delivered_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		o.ID, o.UserID, string(o.Status), o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalAmount,
		o.Payment.Method, o.Payment.Status, nullable(o.Payment.PaymentID), nullable(o.Payment.GatewayOrderID),
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country, o.Notes,
		o.StockApplied, o.DeliveredAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, variant_label, color_name)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, uuid.NewString(), o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice, it.VariantLabel, it.ColorName)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.get(ctx, r.pool, orderID, false)
}

// GetForUpdateTx loads the order row under a row lock so a status transition
// serializes against concurrent transitions for the same order.
func (r *PostgresRepository) GetForUpdateTx(ctx context.Context, q Querier, orderID string) (*Order, error) {
	return r.get(ctx, q, orderID, true)
}

func (r *PostgresRepository) get(ctx context.Context, q Querier, orderID string, forUpdate bool) (*Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := r.loadItems(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SetStatusTx persists a status transition plus its markers.
func (r *PostgresRepository) SetStatusTx(ctx context.Context, q Querier, o *Order) error {
	tag, err := q.Exec(ctx, `
		UPDATE orders
		SET status = $2, stock_applied = $3, delivered_at = $4, updated_at = now()
		WHERE id = $1
	`, o.ID, string(o.Status), o.StockApplied, o.DeliveredAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, r.pool, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, q Querier, o *Order) error {
	rows, err := q.Query(ctx, `
		SELECT product_id, name, quantity, unit_price, variant_label, color_name
		FROM order_items WHERE order_id = $1
	`, o.ID)
	if err != nil {
		return fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.VariantLabel, &it.ColorName); err != nil {
			return fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o         Order
		status    string
		paymentID *string
		gatewayID *string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &status, &o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalAmount,
		&o.Payment.Method, &o.Payment.Status, &paymentID, &gatewayID,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country, &o.Notes,
		&o.StockApplied, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if paymentID != nil {
		o.Payment.PaymentID = *paymentID
	}
	if gatewayID != nil {
		o.Payment.GatewayOrderID = *gatewayID
	}
	return &o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
