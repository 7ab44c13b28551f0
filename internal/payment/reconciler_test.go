package payment

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prithwi32/Ecommerce-Backend/internal/order"
)

type fakeCommitter struct {
	committed []*order.Order
	err       error
}

func (c *fakeCommitter) CommitPaid(ctx context.Context, draft *order.Order) (*order.Order, error) {
	if c.err != nil {
		return nil, c.err
	}
	draft.ID = "o1"
	draft.Status = order.StatusProcessing
	draft.Payment.Status = order.PaymentCompleted
	c.committed = append(c.committed, draft)
	return draft, nil
}

type fakeIdemStore struct {
	seen    map[string]bool
	marked  map[string]string
	seenErr error
	markErr error
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{seen: make(map[string]bool), marked: make(map[string]string)}
}

func (s *fakeIdemStore) SeenPayment(ctx context.Context, gatewayPaymentID string) (bool, error) {
	if s.seenErr != nil {
		return false, s.seenErr
	}
	return s.seen[gatewayPaymentID], nil
}

func (s *fakeIdemStore) MarkPayment(ctx context.Context, gatewayPaymentID, orderID string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.marked[gatewayPaymentID] = orderID
	s.seen[gatewayPaymentID] = true
	return nil
}

func draftOrder() *order.Order {
	return &order.Order{
		UserID: "u1",
		Status: order.StatusPending,
		Items:  []order.Item{{ProductID: "p1", Quantity: 1, UnitPrice: 600}},
		Payment: order.PaymentInfo{
			Method: order.MethodRazorpay,
			Status: order.PaymentPending,
		},
	}
}

func TestVerifyPayment(t *testing.T) {
	committer := &fakeCommitter{}
	idem := newFakeIdemStore()
	r := NewReconciler("s3cret", committer, idem, log.Default())

	sig := Signature("s3cret", "order_gw", "pay_1")
	o, err := r.VerifyPayment(context.Background(), "order_gw", "pay_1", sig, draftOrder())
	require.NoError(t, err)

	assert.Equal(t, "pay_1", o.Payment.PaymentID)
	assert.Equal(t, "order_gw", o.Payment.GatewayOrderID)
	assert.Equal(t, order.PaymentCompleted, o.Payment.Status)
	require.Len(t, committer.committed, 1)
	assert.Equal(t, "o1", idem.marked["pay_1"])
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	committer := &fakeCommitter{}
	idem := newFakeIdemStore()
	r := NewReconciler("s3cret", committer, idem, log.Default())

	_, err := r.VerifyPayment(context.Background(), "order_gw", "pay_1", "deadbeef", draftOrder())
	require.ErrorIs(t, err, ErrVerificationFailed)

	// nothing persisted, nothing marked
	assert.Empty(t, committer.committed)
	assert.Empty(t, idem.marked)
}

func TestVerifyPaymentReplay(t *testing.T) {
	committer := &fakeCommitter{}
	idem := newFakeIdemStore()
	r := NewReconciler("s3cret", committer, idem, log.Default())

	sig := Signature("s3cret", "order_gw", "pay_1")
	_, err := r.VerifyPayment(context.Background(), "order_gw", "pay_1", sig, draftOrder())
	require.NoError(t, err)

	_, err = r.VerifyPayment(context.Background(), "order_gw", "pay_1", sig, draftOrder())
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Len(t, committer.committed, 1)
}

func TestVerifyPaymentBrokenIdemStoreDoesNotBlock(t *testing.T) {
	committer := &fakeCommitter{}
	idem := newFakeIdemStore()
	idem.seenErr = errors.New("redis down")
	idem.markErr = errors.New("redis down")
	r := NewReconciler("s3cret", committer, idem, log.Default())

	sig := Signature("s3cret", "order_gw", "pay_1")
	_, err := r.VerifyPayment(context.Background(), "order_gw", "pay_1", sig, draftOrder())
	require.NoError(t, err)
	assert.Len(t, committer.committed, 1)
}

func TestVerifyPaymentCommitFailure(t *testing.T) {
	commitErr := errors.New("insufficient stock")
	committer := &fakeCommitter{err: commitErr}
	idem := newFakeIdemStore()
	r := NewReconciler("s3cret", committer, idem, log.Default())

	sig := Signature("s3cret", "order_gw", "pay_1")
	_, err := r.VerifyPayment(context.Background(), "order_gw", "pay_1", sig, draftOrder())
	require.ErrorIs(t, err, commitErr)

	// a failed commit must leave the payment unmarked so a retry can succeed
	assert.Empty(t, idem.marked)
}

func TestVerifyPaymentNilStore(t *testing.T) {
	committer := &fakeCommitter{}
	r := NewReconciler("s3cret", committer, nil, log.Default())

	sig := Signature("s3cret", "order_gw", "pay_1")
	_, err := r.VerifyPayment(context.Background(), "order_gw", "pay_1", sig, draftOrder())
	require.NoError(t, err)
	assert.Len(t, committer.committed, 1)
}
