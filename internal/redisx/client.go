package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPaymentVerify maps a verified gateway payment id to the order it
	// produced: idem:payment:verify:{payment_id} -> order_id
	KeyPaymentVerify = "idem:payment:verify:%s"
)

var TTLIdempotency = 24 * time.Hour

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// PaymentStore records reconciled gateway payments so a replayed verification
// callback cannot create a second order.
type PaymentStore struct {
	rdb *redis.Client
}

func NewPaymentStore(rdb *redis.Client) *PaymentStore {
	return &PaymentStore{rdb: rdb}
}

func (s *PaymentStore) SeenPayment(ctx context.Context, gatewayPaymentID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, fmt.Sprintf(KeyPaymentVerify, gatewayPaymentID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PaymentStore) MarkPayment(ctx context.Context, gatewayPaymentID, orderID string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(KeyPaymentVerify, gatewayPaymentID), orderID, TTLIdempotency).Err()
}
