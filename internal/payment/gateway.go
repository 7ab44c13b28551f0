package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/Prithwi32/Ecommerce-Backend/internal/order"
)

// ErrGateway marks failures talking to the external payment gateway.
var ErrGateway = errors.New("payment gateway error")

// RazorpayGateway creates payment intents through the Razorpay Orders API.
// The client is constructed once at process start and injected wherever a
// gateway is needed.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder registers a gateway order for the given amount in minor
// currency units and returns its reference.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (order.GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return order.GatewayOrder{}, fmt.Errorf("%w: create order: %v", ErrGateway, err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return order.GatewayOrder{}, fmt.Errorf("%w: response missing order id", ErrGateway)
	}

	return order.GatewayOrder{
		ID:       id,
		Amount:   amountMinor,
		Currency: currency,
	}, nil
}
