package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Prithwi32/Ecommerce-Backend/internal/catalog"
	"github.com/Prithwi32/Ecommerce-Backend/internal/stock"
)

var ErrValidation = errors.New("invalid order request")

// PgxPool is the subset of *pgxpool.Pool the service needs to open the
// transaction shared by order insert and stock movement.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// StockLedger is implemented by *stock.Ledger.
type StockLedger interface {
	Decrement(ctx context.Context, q stock.Querier, sel stock.Selection, qty int) error
	Increment(ctx context.Context, q stock.Querier, sel stock.Selection, qty int) error
	RecordSale(ctx context.Context, q stock.Querier, productID string, qty int) error
	UnrecordSale(ctx context.Context, q stock.Querier, productID string, qty int) error
}

// GatewayOrder is the external payment-intent reference returned to the
// client, who completes payment out-of-band. Amount is in minor currency
// units.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentGateway creates payment intents with the external gateway.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (GatewayOrder, error)
}

// CartClearer removes purchased items from the buyer's cart after an order
// commits. Failures are logged, never surfaced.
type CartClearer interface {
	RemoveItems(ctx context.Context, userID string, productIDs []string) error
}

// EventPublisher emits order lifecycle events. Publishing is best-effort at
// every call site.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderStatusChanged(ctx context.Context, o *Order, from Status) error
}

// RequestItem is one requested line of a cart-style purchase.
type RequestItem struct {
	ProductID    string `json:"product"`
	Quantity     int    `json:"quantity"`
	VariantLabel string `json:"variant,omitempty"`
	ColorName    string `json:"color,omitempty"`
}

// CreateRequest is a purchase intent: either a single product purchase
// (ProductID set) or a cart snapshot (Items set), never both.
type CreateRequest struct {
	UserID          string
	ProductID       string
	Quantity        int
	Items           []RequestItem
	ShippingAddress Address
	PaymentMethod   string
	Notes           string
}

// CreateResult carries either the persisted order (cash on delivery) or the
// unpersisted draft plus the gateway reference (gateway payments). The draft
// comes back verbatim at verification time; no pending-order state is kept
// server-side in between.
type CreateResult struct {
	Order        *Order        `json:"order,omitempty"`
	Draft        *Order        `json:"orderData,omitempty"`
	GatewayOrder *GatewayOrder `json:"razorpayOrder,omitempty"`
}

// Service is the order builder and lifecycle owner.
type Service struct {
	pool     PgxPool
	orders   Repository
	products catalog.Repository
	ledger   StockLedger
	gateway  PaymentGateway
	carts    CartClearer
	events   EventPublisher
	logger   *log.Logger
}

func NewService(
	pool PgxPool,
	orders Repository,
	products catalog.Repository,
	ledger StockLedger,
	gateway PaymentGateway,
	carts CartClearer,
	events EventPublisher,
	logger *log.Logger,
) *Service {
	return &Service{
		pool:     pool,
		orders:   orders,
		products: products,
		ledger:   ledger,
		gateway:  gateway,
		carts:    carts,
		events:   events,
		logger:   logger,
	}
}

// Create turns a purchase intent into either a persisted order (cash on
// delivery) or a priced draft plus a gateway payment intent.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrValidation)
	}

	items, err := s.buildItems(ctx, req)
	if err != nil {
		return nil, err
	}

	quote := PriceItems(items)
	o := &Order{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Status: StatusPending,
		Items:  items,
		Payment: PaymentInfo{
			Method: req.PaymentMethod,
			Status: PaymentPending,
		},
		ItemsPrice:      quote.ItemsPrice,
		TaxPrice:        quote.TaxPrice,
		ShippingPrice:   quote.ShippingPrice,
		TotalAmount:     quote.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}

	if req.PaymentMethod == MethodCashOnDelivery {
		o.Status = StatusProcessing
		o.StockApplied = true
		if err := s.persistWithStock(ctx, o); err != nil {
			return nil, err
		}
		s.afterCommit(ctx, o, req.ProductID == "")
		return &CreateResult{Order: o}, nil
	}

	// Gateway-routed: create the external payment intent, return the draft
	// unpersisted. Amount is converted to minor currency units.
	amountMinor := int64(math.Round(o.TotalAmount * 100))
	receipt := fmt.Sprintf("rcpt_%d", time.Now().UnixMilli())
	gw, err := s.gateway.CreateOrder(ctx, amountMinor, "INR", receipt)
	if err != nil {
		return nil, err
	}

	return &CreateResult{Draft: o, GatewayOrder: &gw}, nil
}

// CommitPaid persists a verified draft the same way a cash-on-delivery order
// is persisted: order insert and stock decrement share one transaction, so a
// stock failure leaves no partial order behind.
func (s *Service) CommitPaid(ctx context.Context, draft *Order) (*Order, error) {
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("%w: order draft has no items", ErrValidation)
	}

	draft.Status = StatusProcessing
	draft.Payment.Status = PaymentCompleted
	draft.StockApplied = true
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}

	if err := s.persistWithStock(ctx, draft); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, draft, true)
	return draft, nil
}

func (s *Service) buildItems(ctx context.Context, req CreateRequest) ([]Item, error) {
	var requested []RequestItem
	switch {
	case req.ProductID != "" && len(req.Items) > 0:
		return nil, fmt.Errorf("%w: provide either a product or cart items, not both", ErrValidation)
	case req.ProductID != "":
		qty := req.Quantity
		if qty < 1 {
			qty = 1
		}
		requested = []RequestItem{{ProductID: req.ProductID, Quantity: qty}}
	case len(req.Items) > 0:
		requested = req.Items
	default:
		return nil, fmt.Errorf("%w: no items provided for order", ErrValidation)
	}

	items := make([]Item, 0, len(requested))
	for _, ri := range requested {
		if ri.Quantity < 1 {
			return nil, fmt.Errorf("%w: invalid quantity for product %s", ErrValidation, ri.ProductID)
		}

		p, err := s.products.Get(ctx, ri.ProductID)
		if err != nil {
			return nil, err
		}
		available, ok := p.AvailableStock(ri.VariantLabel, ri.ColorName)
		if !ok {
			return nil, catalog.ErrNotFound
		}
		if ri.Quantity > available {
			return nil, fmt.Errorf("product %s is out of stock: %w", p.Name, stock.ErrInsufficientStock)
		}

		items = append(items, Item{
			ProductID:    ri.ProductID,
			Name:         p.Name,
			Quantity:     ri.Quantity,
			UnitPrice:    p.EffectivePrice(ri.VariantLabel),
			VariantLabel: ri.VariantLabel,
			ColorName:    ri.ColorName,
		})
	}
	return items, nil
}

// persistWithStock runs the all-or-nothing unit: insert the order and its
// items, then conditionally decrement every resolved stock pool and record
// the sales. Any failure rolls the whole thing back, including the race where
// another order takes the last unit between the availability check and here.
func (s *Service) persistWithStock(ctx context.Context, o *Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.CreateTx(ctx, tx, o); err != nil {
		return err
	}

	for _, it := range o.Items {
		sel := stock.Selection{
			ProductID:    it.ProductID,
			VariantLabel: it.VariantLabel,
			ColorName:    it.ColorName,
		}
		if err := s.ledger.Decrement(ctx, tx, sel, it.Quantity); err != nil {
			return err
		}
		if err := s.ledger.RecordSale(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// afterCommit handles the best-effort follow-ups: clearing purchased items
// from the cart and publishing the OrderCreated event. Neither may fail the
// already-committed order.
func (s *Service) afterCommit(ctx context.Context, o *Order, clearCart bool) {
	if clearCart && s.carts != nil {
		ids := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			ids = append(ids, it.ProductID)
		}
		if err := s.carts.RemoveItems(ctx, o.UserID, ids); err != nil {
			s.logger.Printf("order %s: clear cart for user %s: %v", o.ID, o.UserID, err)
		}
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, o); err != nil {
			s.logger.Printf("order %s: publish OrderCreated: %v", o.ID, err)
		}
	}
}

// UpdateStatus applies a lifecycle transition and its stock effect in one
// transaction. The order row is locked for the duration so concurrent
// transitions for the same order serialize.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to Status) (*Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	effect, err := Transition(from, to, o.StockApplied)
	if err != nil {
		return nil, fmt.Errorf("%w: %s -> %s", err, from, to)
	}

	switch effect {
	case EffectApply:
		for _, it := range o.Items {
			sel := stock.Selection{ProductID: it.ProductID, VariantLabel: it.VariantLabel, ColorName: it.ColorName}
			if err := s.ledger.Decrement(ctx, tx, sel, it.Quantity); err != nil {
				return nil, err
			}
			if err := s.ledger.RecordSale(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return nil, err
			}
		}
		o.StockApplied = true
	case EffectRestore:
		for _, it := range o.Items {
			sel := stock.Selection{ProductID: it.ProductID, VariantLabel: it.VariantLabel, ColorName: it.ColorName}
			if err := s.ledger.Increment(ctx, tx, sel, it.Quantity); err != nil {
				return nil, err
			}
			if err := s.ledger.UnrecordSale(ctx, tx, it.ProductID, it.Quantity); err != nil {
				return nil, err
			}
		}
		o.StockApplied = false
	}

	if to == StatusDelivered {
		now := time.Now().UTC()
		o.DeliveredAt = &now
	}
	o.Status = to

	if err := s.orders.SetStatusTx(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderStatusChanged(ctx, o, from); err != nil {
			s.logger.Printf("order %s: publish status change: %v", o.ID, err)
		}
	}
	return o, nil
}

func (s *Service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
