package cart

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Prithwi32/Ecommerce-Backend/internal/catalog"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Service owns all cart mutations. Every mutation recomputes the derived
// totals from current catalog prices, so totalItems and totalAmount are never
// stored independently of the items that justify them.
type Service struct {
	carts    Repository
	products catalog.Repository
}

func NewService(carts Repository, products catalog.Repository) *Service {
	return &Service{carts: carts, products: products}
}

// Get returns the user's cart, or the empty cart shape when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return emptyCart(userID), nil
	}
	if err := s.recompute(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem puts qty units of a product selection into the cart, merging with an
// existing line for the same (product, variant, color) combination.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int, variantLabel, colorName string) (*Cart, error) {
	if qty < 1 {
		qty = 1
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, ok := p.AvailableStock(variantLabel, colorName); !ok {
		return nil, catalog.ErrNotFound
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Cart{UserID: userID}
	}

	merged := false
	for i := range c.Items {
		it := &c.Items[i]
		if it.ProductID == productID && it.VariantLabel == variantLabel && it.ColorName == colorName {
			it.Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{
			ProductID:    productID,
			Quantity:     qty,
			VariantLabel: variantLabel,
			ColorName:    colorName,
		})
	}

	return s.save(ctx, c)
}

// SetItemQuantity replaces (not adds to) the quantity of the cart line for
// productID. Lines are matched by product only, matching how the update
// endpoint addresses items.
func (s *Service) SetItemQuantity(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			found = true
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	return s.save(ctx, c)
}

// RemoveItem drops every line for the given product.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}

	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept

	if len(c.Items) == 0 {
		if err := s.carts.Delete(ctx, userID); err != nil {
			return nil, err
		}
		return emptyCart(userID), nil
	}
	return s.save(ctx, c)
}

// RemoveItems drops lines for the listed products, used after an order commits
// to clear purchased items. A cart emptied this way is deleted outright.
func (s *Service) RemoveItems(ctx context.Context, userID string, productIDs []string) error {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}

	purchased := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		purchased[id] = true
	}

	kept := c.Items[:0]
	for _, it := range c.Items {
		if !purchased[it.ProductID] {
			kept = append(kept, it)
		}
	}
	c.Items = kept

	if len(c.Items) == 0 {
		return s.carts.Delete(ctx, userID)
	}
	_, err = s.save(ctx, c)
	return err
}

// Clear empties the cart. Clearing twice yields the same empty state.
func (s *Service) Clear(ctx context.Context, userID string) (*Cart, error) {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return emptyCart(userID), nil
}

// ValidateStock compares every line against its resolved stock pool and
// reports shortages without mutating anything.
func (s *Service) ValidateStock(ctx context.Context, userID string) ([]Shortage, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	var shortages []Shortage
	for _, it := range c.Items {
		p, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
		available, ok := p.AvailableStock(it.VariantLabel, it.ColorName)
		if !ok {
			available = 0
		}
		if it.Quantity > available {
			shortages = append(shortages, Shortage{
				ProductID:    it.ProductID,
				ProductName:  p.Name,
				VariantLabel: it.VariantLabel,
				ColorName:    it.ColorName,
				Requested:    it.Quantity,
				Available:    available,
			})
		}
	}
	return shortages, nil
}

// save recomputes derived fields and persists the cart.
func (s *Service) save(ctx context.Context, c *Cart) (*Cart, error) {
	if err := s.recompute(ctx, c); err != nil {
		return nil, err
	}
	if err := s.carts.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// recompute refreshes name and effective price per line from the catalog and
// rebuilds the totals. Lines whose product no longer exists are dropped.
// Effective price resolution is uniform everywhere: variant override, else
// base price (colors carry no override).
func (s *Service) recompute(ctx context.Context, c *Cart) error {
	loaded := make(map[string]*catalog.Product, len(c.Items))

	kept := c.Items[:0]
	totalItems := 0
	totalAmount := 0.0
	for _, it := range c.Items {
		p, ok := loaded[it.ProductID]
		if !ok {
			var err error
			p, err = s.products.Get(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					continue
				}
				return err
			}
			loaded[it.ProductID] = p
		}

		it.ProductName = p.Name
		it.Price = p.EffectivePrice(it.VariantLabel)
		kept = append(kept, it)

		totalItems += it.Quantity
		totalAmount += it.Price * float64(it.Quantity)
	}

	c.Items = kept
	c.TotalItems = totalItems
	c.TotalAmount = round2(totalAmount)
	return nil
}

func emptyCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []Item{}}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
