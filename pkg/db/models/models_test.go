package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
)

func TestPromotionValidate(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tests := []struct {
		name  string
		promo Promotion
		want  error
	}{
		{"valid percentage", Promotion{DiscountType: enums.DiscountTypePercentage, Value: decimal.NewFromInt(100), StartDate: start}, nil},
		{"zero value", Promotion{DiscountType: enums.DiscountTypeFixed, Value: decimal.Zero, StartDate: start}, ErrPromotionValueNotPositive},
		{"percent over 100", Promotion{DiscountType: enums.DiscountTypePercentage, Value: decimal.NewFromInt(101), StartDate: start}, ErrPromotionPercentTooLarge},
		{"fixed over 100 allowed", Promotion{DiscountType: enums.DiscountTypeFixed, Value: decimal.NewFromInt(500), StartDate: start}, nil},
		{"end before start", Promotion{DiscountType: enums.DiscountTypeFixed, Value: decimal.NewFromInt(5), StartDate: start, EndDate: &end}, ErrPromotionEndBeforeStart},
		{"same day window", Promotion{DiscountType: enums.DiscountTypeFixed, Value: decimal.NewFromInt(5), StartDate: start, EndDate: &start}, nil},
		{"unknown type", Promotion{DiscountType: "bogo", Value: decimal.NewFromInt(5), StartDate: start}, ErrPromotionUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.promo.Validate())
		})
	}
}

func TestCouponNormalize(t *testing.T) {
	c := Coupon{Code: "  welcome10 ", DiscountPercent: 10}
	assert.NoError(t, c.normalize())
	assert.Equal(t, "WELCOME10", c.Code)

	c = Coupon{Code: "X", DiscountPercent: 0}
	assert.Equal(t, ErrCouponPercentOutOfRange, c.normalize())

	c = Coupon{Code: " ", DiscountPercent: 5}
	assert.Equal(t, ErrCouponCodeRequired, c.normalize())
}

func TestProductPurchasable(t *testing.T) {
	p := &Product{IsActive: true, IsApproved: true, Stock: 1}
	assert.True(t, p.Purchasable())
	p.Stock = 0
	assert.False(t, p.Purchasable())
	p.Stock, p.IsApproved = 3, false
	assert.False(t, p.Purchasable())
	var missing *Product
	assert.False(t, missing.Purchasable())
}

func TestProductValidate(t *testing.T) {
	p := Product{Price: decimal.NewFromInt(100)}
	assert.NoError(t, p.Validate())

	p.DiscountedPrice = decimal.NewNullDecimal(decimal.NewFromInt(120))
	assert.Equal(t, ErrProductOverrideInvalid, p.Validate())

	p.DiscountedPrice = decimal.NewNullDecimal(decimal.NewFromInt(80))
	assert.NoError(t, p.Validate())

	p.Stock = -1
	assert.Equal(t, ErrProductNegativeStock, p.Validate())
}
