package payment

import (
	"context"
	"errors"
	"log"

	"github.com/Prithwi32/Ecommerce-Backend/internal/order"
)

var (
	// ErrVerificationFailed means the callback signature did not match; no
	// state was changed.
	ErrVerificationFailed = errors.New("payment verification failed")
	// ErrAlreadyProcessed means this gateway payment already produced an
	// order; replaying the callback creates nothing.
	ErrAlreadyProcessed = errors.New("payment already processed")
)

// OrderCommitter persists a verified order draft. Implemented by
// *order.Service.
type OrderCommitter interface {
	CommitPaid(ctx context.Context, draft *order.Order) (*order.Order, error)
}

// IdempotencyStore remembers which gateway payments have been reconciled.
// A broken store only disables the replay guard, it never blocks a payment.
type IdempotencyStore interface {
	SeenPayment(ctx context.Context, gatewayPaymentID string) (bool, error)
	MarkPayment(ctx context.Context, gatewayPaymentID, orderID string) error
}

// Reconciler turns a completed out-of-band gateway payment into a persisted
// order, but only after proving the callback really came from the gateway.
type Reconciler struct {
	secret string
	orders OrderCommitter
	idem   IdempotencyStore
	logger *log.Logger
}

func NewReconciler(secret string, orders OrderCommitter, idem IdempotencyStore, logger *log.Logger) *Reconciler {
	return &Reconciler{secret: secret, orders: orders, idem: idem, logger: logger}
}

// VerifyPayment checks the gateway signature over orderID|paymentID and, on
// match, persists the echoed draft with completed payment info. The draft is
// exactly what Create returned for the gateway path; the server kept no
// pending-order state in between.
func (r *Reconciler) VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, draft *order.Order) (*order.Order, error) {
	if !VerifySignature(r.secret, gatewayOrderID, gatewayPaymentID, signature) {
		return nil, ErrVerificationFailed
	}

	if r.idem != nil {
		seen, err := r.idem.SeenPayment(ctx, gatewayPaymentID)
		if err != nil {
			r.logger.Printf("payment %s: idempotency lookup: %v", gatewayPaymentID, err)
		} else if seen {
			return nil, ErrAlreadyProcessed
		}
	}

	draft.Payment.PaymentID = gatewayPaymentID
	draft.Payment.GatewayOrderID = gatewayOrderID

	o, err := r.orders.CommitPaid(ctx, draft)
	if err != nil {
		return nil, err
	}

	if r.idem != nil {
		if err := r.idem.MarkPayment(ctx, gatewayPaymentID, o.ID); err != nil {
			r.logger.Printf("payment %s: idempotency mark: %v", gatewayPaymentID, err)
		}
	}
	return o, nil
}
