package cart

import (
	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

// View is the JSON representation of a priced cart.
type View struct {
	SessionID string      `json:"session_id"`
	Items     []LineView  `json:"items"`
	ItemCount int         `json:"item_count"`
	Subtotal  string      `json:"subtotal"`
	Discount  string      `json:"discount"`
	Total     string      `json:"total"`
	Currency  string      `json:"currency"`
	Coupon    *CouponView `json:"coupon,omitempty"`
}

type LineView struct {
	ProductID          uuid.UUID `json:"product_id"`
	Name               string    `json:"name,omitempty"`
	Quantity           int       `json:"quantity"`
	UnitPrice          string    `json:"unit_price"`
	LineTotal          string    `json:"line_total"`
	SnapshotPrice      string    `json:"snapshot_price"`
	OriginalPrice      *string   `json:"original_price,omitempty"`
	HasActivePromotion bool      `json:"has_active_promotion"`
	Available          bool      `json:"available"`
}

type CouponView struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount_percent"`
	Valid           bool      `json:"valid"`
}

// NewView renders c for API responses.
func NewView(sessionID string, c *Cart) *View {
	view := &View{
		SessionID: sessionID,
		Items:     []LineView{},
		ItemCount: c.Len(),
		Subtotal:  money.String(c.Subtotal()),
		Discount:  money.String(c.Discount()),
		Total:     money.String(c.Total()),
		Currency:  money.Currency,
	}
	for _, line := range c.Lines() {
		item := LineView{
			ProductID:          line.ProductID,
			Name:               line.Name,
			Quantity:           line.Quantity,
			UnitPrice:          money.String(line.UnitPrice),
			LineTotal:          money.String(line.LineTotal),
			SnapshotPrice:      money.String(line.SnapshotPrice),
			HasActivePromotion: line.HasActivePromotion,
			Available:          line.Available,
		}
		if line.OriginalPrice != nil {
			original := money.String(*line.OriginalPrice)
			item.OriginalPrice = &original
		}
		view.Items = append(view.Items, item)
	}
	if coupon := c.Coupon(); coupon != nil {
		view.Coupon = &CouponView{
			ID:              coupon.ID,
			Code:            coupon.Code,
			DiscountPercent: coupon.DiscountPercent,
			Valid:           c.CouponValid(),
		}
	}
	return view
}
