package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

// CurrentPrice resolves the unit price a buyer pays today. A manual override
// wins outright, then a valid promotion, then the regular price.
func CurrentPrice(p *models.Product, today time.Time) decimal.Decimal {
	if p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	if PromotionIsValid(p.Promotion, today) {
		return DiscountedPrice(p.Promotion, p.Price, today)
	}
	return p.Price
}

// HasActivePromotion is true only when the promotion is what set the price.
func HasActivePromotion(p *models.Product, today time.Time) bool {
	return !p.DiscountedPrice.Valid && PromotionIsValid(p.Promotion, today)
}

// SavingsAmount is the difference between the regular and current price, never
// negative.
func SavingsAmount(p *models.Product, today time.Time) decimal.Decimal {
	return money.Round(money.FloorZero(p.Price.Sub(CurrentPrice(p, today))))
}

// Quote is the resolved price view of a product.
type Quote struct {
	ProductID          string
	UnitPrice          decimal.Decimal
	BasePrice          decimal.Decimal
	Savings            decimal.Decimal
	HasActivePromotion bool
	OverrideApplied    bool
}

// Resolver binds the price functions to a clock and the marketplace timezone
// so that "today" means the same calendar day for every caller.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver builds a resolver. A nil location falls back to UTC and a nil
// clock to time.Now.
func NewResolver(loc *time.Location, now func() time.Time) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{loc: loc, now: now}
}

// Now returns the current instant in the marketplace timezone.
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// Today returns the current calendar date in the marketplace timezone.
func (r *Resolver) Today() time.Time {
	return DateOf(r.Now())
}

func (r *Resolver) CurrentPrice(p *models.Product) decimal.Decimal {
	return CurrentPrice(p, r.Today())
}

func (r *Resolver) HasActivePromotion(p *models.Product) bool {
	return HasActivePromotion(p, r.Today())
}

// Quote resolves every price signal for p in one pass.
func (r *Resolver) Quote(p *models.Product) Quote {
	today := r.Today()
	return Quote{
		ProductID:          p.ID.String(),
		UnitPrice:          CurrentPrice(p, today),
		BasePrice:          p.Price,
		Savings:            SavingsAmount(p, today),
		HasActivePromotion: HasActivePromotion(p, today),
		OverrideApplied:    p.DiscountedPrice.Valid,
	}
}
