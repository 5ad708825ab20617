package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

// DateOf returns the calendar date of t, as read in t's location, at UTC
// midnight so dates from different sources compare directly.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PromotionIsValid reports whether the promotion applies on the given calendar
// day. A nil promotion is never valid.
func PromotionIsValid(p *models.Promotion, today time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	day := DateOf(today)
	if day.Before(DateOf(p.StartDate)) {
		return false
	}
	if p.EndDate != nil && day.After(DateOf(*p.EndDate)) {
		return false
	}
	return true
}

// DiscountedPrice applies the promotion to base. Invalid promotions return base
// unchanged and the result never drops below zero.
func DiscountedPrice(p *models.Promotion, base decimal.Decimal, today time.Time) decimal.Decimal {
	if !PromotionIsValid(p, today) {
		return base
	}

	var price decimal.Decimal
	switch p.DiscountType {
	case enums.DiscountTypePercentage:
		price = base.Sub(money.Percent(base, p.Value))
	case enums.DiscountTypeFixed:
		price = base.Sub(p.Value)
	default:
		return base
	}
	return money.Round(money.FloorZero(price))
}
