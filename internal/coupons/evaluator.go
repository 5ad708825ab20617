package coupons

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponInactive   = errors.New("coupon is not active")
	ErrCouponNotStarted = errors.New("coupon is not valid yet")
	ErrCouponExpired    = errors.New("coupon has expired")
	ErrCouponExhausted  = errors.New("coupon usage limit reached")
)

// Validate returns the first rule the coupon breaks at now, or nil when the
// coupon can be applied.
func Validate(c *models.Coupon, now time.Time) error {
	if c == nil {
		return ErrCouponNotFound
	}
	if !c.Active {
		return ErrCouponInactive
	}
	if now.Before(c.ValidFrom) {
		return ErrCouponNotStarted
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return ErrCouponExpired
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return ErrCouponExhausted
	}
	return nil
}

// IsRejection reports whether err is one of the coupon rules above rather
// than a storage failure.
func IsRejection(err error) bool {
	for _, rule := range []error{ErrCouponNotFound, ErrCouponInactive, ErrCouponNotStarted, ErrCouponExpired, ErrCouponExhausted} {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}

// IsValid reports whether the coupon can be applied at now.
func IsValid(c *models.Coupon, now time.Time) bool {
	return Validate(c, now) == nil
}

// Discount returns the coupon's share of subtotal. Callers decide validity
// first; a nil coupon yields zero.
func Discount(c *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}
	return money.Percent(subtotal, decimal.NewFromInt(int64(c.DiscountPercent)))
}

// UserMessage maps an evaluator error to the text shown to buyers.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrCouponNotFound):
		return "Invalid coupon code."
	case errors.Is(err, ErrCouponInactive):
		return "This coupon is no longer active."
	case errors.Is(err, ErrCouponNotStarted):
		return "This coupon cannot be used yet."
	case errors.Is(err, ErrCouponExpired):
		return "This coupon has expired."
	case errors.Is(err, ErrCouponExhausted):
		return "This coupon has reached its usage limit."
	default:
		return "Coupon could not be applied."
	}
}
