package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stylebazaar/stylebazaar-backend/internal/coupons"
	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

// Line is the priced view of a cart entry at read time.
type Line struct {
	ProductID          uuid.UUID
	Product            *models.Product
	Name               string
	Quantity           int
	UnitPrice          decimal.Decimal
	LineTotal          decimal.Decimal
	SnapshotPrice      decimal.Decimal
	OriginalPrice      *decimal.Decimal
	HasActivePromotion bool
	Available          bool
}

// Cart joins a session State with live product and coupon data. Prices are
// resolved on every read, so the cart previews prices rather than locking
// them.
type Cart struct {
	state    *State
	products map[uuid.UUID]*models.Product
	coupon   *models.Coupon
	resolver *pricing.Resolver
}

// New builds an aggregator over state. products holds whatever still exists;
// entries whose product is missing fall back to their snapshot.
func New(state *State, products map[uuid.UUID]*models.Product, coupon *models.Coupon, resolver *pricing.Resolver) *Cart {
	if state == nil {
		state = NewState()
	}
	if products == nil {
		products = map[uuid.UUID]*models.Product{}
	}
	if resolver == nil {
		resolver = pricing.NewResolver(nil, nil)
	}
	return &Cart{state: state, products: products, coupon: coupon, resolver: resolver}
}

// State exposes the underlying session state for persistence.
func (c *Cart) State() *State { return c.state }

// Coupon returns the attached coupon, nil when none is attached.
func (c *Cart) Coupon() *models.Coupon { return c.coupon }

// Add puts quantity units of product in the cart. A nil price snapshots the
// product's current price.
func (c *Cart) Add(product *models.Product, quantity int, price *decimal.Decimal, override bool) {
	snapshot := c.resolver.CurrentPrice(product)
	if price != nil {
		snapshot = money.Round(*price)
	}
	c.products[product.ID] = product
	c.state.Add(product.ID, quantity, snapshot, override, c.resolver.Now())
}

// Remove drops the product's entry, if any.
func (c *Cart) Remove(productID uuid.UUID) {
	c.state.Remove(productID)
}

// Lines prices every entry against live data.
func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.state.Entries))
	for _, entry := range c.state.Entries {
		line := Line{
			ProductID:     entry.ProductID,
			Quantity:      entry.Quantity,
			SnapshotPrice: entry.Price,
			UnitPrice:     entry.Price,
		}
		if product, ok := c.products[entry.ProductID]; ok && product != nil {
			line.Product = product
			line.Name = product.Name
			line.Available = true
			line.UnitPrice = c.resolver.CurrentPrice(product)
			line.HasActivePromotion = c.resolver.HasActivePromotion(product)
			if product.Price.GreaterThan(line.UnitPrice) {
				original := product.Price
				line.OriginalPrice = &original
			}
		}
		line.LineTotal = money.Line(line.UnitPrice, line.Quantity)
		lines = append(lines, line)
	}
	return lines
}

// Subtotal sums the live line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines() {
		total = total.Add(line.LineTotal)
	}
	return money.Round(total)
}

// CouponValid reports whether the attached coupon currently applies.
func (c *Cart) CouponValid() bool {
	return c.coupon != nil && coupons.IsValid(c.coupon, c.resolver.Now())
}

// Discount is the coupon share of the subtotal, zero without a valid coupon.
func (c *Cart) Discount() decimal.Decimal {
	if !c.CouponValid() {
		return decimal.Zero
	}
	return coupons.Discount(c.coupon, c.Subtotal())
}

// Total is the subtotal minus the discount, never negative.
func (c *Cart) Total() decimal.Decimal {
	return money.FloorZero(c.Subtotal().Sub(c.Discount()))
}

// Len is the number of units in the cart.
func (c *Cart) Len() int {
	return c.state.Len()
}

// Clear empties the cart and detaches the coupon.
func (c *Cart) Clear() {
	c.state.Clear()
	c.coupon = nil
}

// ApplyCoupon attaches coupon when it is valid right now. On failure any
// previously attached coupon is detached and the evaluator error returned.
// Usage counters are never touched here.
func (c *Cart) ApplyCoupon(coupon *models.Coupon) error {
	if err := coupons.Validate(coupon, c.resolver.Now()); err != nil {
		c.DetachCoupon()
		return err
	}
	id := coupon.ID
	c.state.CouponID = &id
	c.coupon = coupon
	return nil
}

// DetachCoupon removes any coupon reference.
func (c *Cart) DetachCoupon() {
	c.state.CouponID = nil
	c.coupon = nil
}
