package catalog

import "time"

type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Variant struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Price *float64 `json:"price,omitempty"`
	Stock int      `json:"stock"`
}

type Color struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Stock int    `json:"stock"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	SoldCount   int       `json:"soldCount"`
	IsActive    bool      `json:"isActive"`
	Variants    []Variant `json:"variants,omitempty"`
	Colors      []Color   `json:"colors,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EffectivePrice returns the per-unit price for a line selecting the given
// variant. A variant price override wins, otherwise the base price applies.
// Colors never carry a price override.
func (p *Product) EffectivePrice(variantLabel string) float64 {
	if variantLabel != "" {
		for _, v := range p.Variants {
			if v.Label == variantLabel && v.Price != nil {
				return *v.Price
			}
		}
	}
	return p.Price
}

// AvailableStock resolves the stock pool for a selection: variant stock when a
// variant is chosen, else color stock when a color is chosen, else the base
// product stock. The bool reports whether the named variant/color exists.
func (p *Product) AvailableStock(variantLabel, colorName string) (int, bool) {
	if variantLabel != "" {
		for _, v := range p.Variants {
			if v.Label == variantLabel {
				return v.Stock, true
			}
		}
		return 0, false
	}
	if colorName != "" {
		for _, c := range p.Colors {
			if c.Name == colorName {
				return c.Stock, true
			}
		}
		return 0, false
	}
	return p.Stock, true
}
