package order

import "time"

// Payment methods accepted at checkout. Everything except cash on delivery is
// routed through the payment gateway.
const (
	MethodCreditCard     = "credit_card"
	MethodDebitCard      = "debit_card"
	MethodUPI            = "upi"
	MethodNetBanking     = "net_banking"
	MethodCashOnDelivery = "cash_on_delivery"
	MethodRazorpay       = "razorpay"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type PaymentInfo struct {
	Method         string `json:"method"`
	Status         string `json:"status"`
	PaymentID      string `json:"id,omitempty"`
	GatewayOrderID string `json:"orderId,omitempty"`
}

// Item is an order line with the unit price and product name captured at
// order time. Prices are frozen here regardless of later catalog changes.
type Item struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"price"`
	VariantLabel string  `json:"variant,omitempty"`
	ColorName    string  `json:"color,omitempty"`
}

type Order struct {
	ID              string      `json:"orderId"`
	UserID          string      `json:"userId"`
	Status          Status      `json:"status"`
	Items           []Item      `json:"items"`
	ItemsPrice      float64     `json:"itemsPrice"`
	TaxPrice        float64     `json:"taxPrice"`
	ShippingPrice   float64     `json:"shippingPrice"`
	TotalAmount     float64     `json:"totalAmount"`
	Payment         PaymentInfo `json:"paymentInfo"`
	ShippingAddress Address     `json:"shippingAddress"`
	Notes           string      `json:"notes,omitempty"`
	// StockApplied records whether this order's stock decrement has run, so a
	// repeated transition to processing can never decrement twice.
	StockApplied bool       `json:"-"`
	DeliveredAt  *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
