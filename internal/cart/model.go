package cart

import "time"

// Item is one line in a user's cart. A line is identified by the
// (product, variant label, color name) combination; adding the same
// combination again merges quantities instead of appending a row.
type Item struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	Price        float64 `json:"price"` // effective unit price at last recompute
	Quantity     int     `json:"quantity"`
	VariantLabel string  `json:"variant,omitempty"`
	ColorName    string  `json:"color,omitempty"`
}

type Cart struct {
	ID          string    `json:"cartId"`
	UserID      string    `json:"userId"`
	Items       []Item    `json:"items"`
	TotalItems  int       `json:"totalItems"`
	TotalAmount float64   `json:"totalAmount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Shortage reports a cart line whose requested quantity exceeds the resolved
// stock pool. Produced by ValidateStock, which never mutates anything.
type Shortage struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	VariantLabel string `json:"variant,omitempty"`
	ColorName    string `json:"color,omitempty"`
	Requested    int    `json:"requested"`
	Available    int    `json:"available"`
}
