package order

import "math"

// Fixed business constants, not configurable per request.
const (
	TaxRate               = 0.18
	FreeShippingThreshold = 1000.0
	FlatShippingFee       = 100.0
)

// Quote is the priced breakdown of a set of order items.
type Quote struct {
	ItemsPrice    float64
	TaxPrice      float64
	ShippingPrice float64
	TotalAmount   float64
}

// PriceItems computes the monetary breakdown for the given lines: 18% tax on
// the items total, flat shipping fee waived above the free-shipping
// threshold. All values are rounded to 2 fraction digits.
func PriceItems(items []Item) Quote {
	itemsPrice := 0.0
	for _, it := range items {
		itemsPrice += it.UnitPrice * float64(it.Quantity)
	}
	itemsPrice = round2(itemsPrice)

	taxPrice := round2(itemsPrice * TaxRate)

	shippingPrice := FlatShippingFee
	if itemsPrice > FreeShippingThreshold {
		shippingPrice = 0
	}

	return Quote{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalAmount:   round2(itemsPrice + taxPrice + shippingPrice),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
