package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylebazaar/stylebazaar-backend/internal/coupons"
	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

var testNow = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

func fixedResolver() *pricing.Resolver {
	return pricing.NewResolver(time.UTC, func() time.Time { return testNow })
}

func testProduct(name, price string, stock int) *models.Product {
	return &models.Product{
		ID:         uuid.New(),
		SellerID:   uuid.New(),
		Name:       name,
		Price:      money.MustParse(price),
		Stock:      stock,
		IsActive:   true,
		IsApproved: true,
	}
}

func validCoupon(percent int) *models.Coupon {
	return &models.Coupon{
		ID:              uuid.New(),
		Code:            "SAVE",
		DiscountPercent: percent,
		ValidFrom:       testNow.Add(-24 * time.Hour),
		Active:          true,
	}
}

func TestCartSubtotalUsesLivePrices(t *testing.T) {
	shirt := testProduct("Shirt", "200", 5)
	c := New(nil, nil, nil, fixedResolver())
	c.Add(shirt, 2, nil, false)
	require.True(t, c.Subtotal().Equal(money.MustParse("400")))

	// A promotion starting after the add is reflected on the next read.
	shirt.Promotion = &models.Promotion{
		DiscountType: enums.DiscountTypePercentage,
		Value:        money.MustParse("25"),
		StartDate:    testNow,
		IsActive:     true,
	}
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(money.MustParse("150")))
	assert.True(t, lines[0].SnapshotPrice.Equal(money.MustParse("200")))
	assert.True(t, lines[0].HasActivePromotion)
	require.NotNil(t, lines[0].OriginalPrice)
	assert.True(t, lines[0].OriginalPrice.Equal(money.MustParse("200")))
	assert.True(t, c.Subtotal().Equal(money.MustParse("300")))
}

func TestCartMissingProductFallsBackToSnapshot(t *testing.T) {
	gone := uuid.New()
	state := NewState()
	state.Add(gone, 3, money.MustParse("12.50"), false, testNow)
	kept := testProduct("Belt", "40", 2)
	state.Add(kept.ID, 1, money.MustParse("45"), false, testNow)

	c := New(state, map[uuid.UUID]*models.Product{kept.ID: kept}, nil, fixedResolver())
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.False(t, lines[0].Available)
	assert.True(t, lines[0].UnitPrice.Equal(money.MustParse("12.50")))
	assert.True(t, lines[0].LineTotal.Equal(money.MustParse("37.50")))
	assert.True(t, lines[1].Available)
	assert.True(t, lines[1].UnitPrice.Equal(money.MustParse("40")))
	assert.True(t, c.Subtotal().Equal(money.MustParse("77.50")))
	assert.Equal(t, 4, c.Len())
}

func TestCartAddExplicitPriceSnapshot(t *testing.T) {
	p := testProduct("Cap", "80", 3)
	c := New(nil, nil, nil, fixedResolver())
	price := decimal.RequireFromString("75.555")
	c.Add(p, 1, &price, false)

	entry, ok := c.State().Entry(p.ID)
	require.True(t, ok)
	assert.True(t, entry.Price.Equal(money.MustParse("75.56")))
}

func TestCartDiscountAndTotal(t *testing.T) {
	p := testProduct("Dress", "500", 10)
	c := New(nil, nil, nil, fixedResolver())
	c.Add(p, 2, nil, false)

	assert.True(t, c.Discount().IsZero())
	require.NoError(t, c.ApplyCoupon(validCoupon(10)))
	assert.True(t, c.Discount().Equal(money.MustParse("100")))
	assert.True(t, c.Total().Equal(money.MustParse("900")))

	require.NoError(t, c.ApplyCoupon(validCoupon(100)))
	assert.True(t, c.Total().IsZero())
}

func TestCartDiscountIgnoresCouponThatStoppedBeingValid(t *testing.T) {
	p := testProduct("Dress", "500", 10)
	coupon := validCoupon(10)
	c := New(nil, nil, nil, fixedResolver())
	c.Add(p, 1, nil, false)
	require.NoError(t, c.ApplyCoupon(coupon))

	coupon.Active = false
	assert.False(t, c.CouponValid())
	assert.True(t, c.Discount().IsZero())
	assert.True(t, c.Total().Equal(money.MustParse("500")))
}

func TestCartApplyInvalidCouponLeavesStateUnset(t *testing.T) {
	limit := 5
	exhausted := validCoupon(10)
	exhausted.MaxUses = &limit
	exhausted.UsedCount = 5

	c := New(nil, nil, nil, fixedResolver())
	err := c.ApplyCoupon(exhausted)
	assert.True(t, errors.Is(err, coupons.ErrCouponExhausted))
	assert.Nil(t, c.State().CouponID)
	assert.Nil(t, c.Coupon())

	require.NoError(t, c.ApplyCoupon(validCoupon(5)))
	assert.NotNil(t, c.State().CouponID)
	assert.Error(t, c.ApplyCoupon(nil))
	assert.Nil(t, c.State().CouponID, "a failed apply detaches the previous coupon")
}

func TestCartApplyDoesNotTouchUsage(t *testing.T) {
	coupon := validCoupon(10)
	coupon.UsedCount = 2
	c := New(nil, nil, nil, fixedResolver())
	require.NoError(t, c.ApplyCoupon(coupon))
	assert.Equal(t, 2, coupon.UsedCount)
}

func TestCartClearDetachesCoupon(t *testing.T) {
	p := testProduct("Scarf", "60", 4)
	c := New(nil, nil, nil, fixedResolver())
	c.Add(p, 2, nil, false)
	require.NoError(t, c.ApplyCoupon(validCoupon(10)))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Coupon())
	assert.Nil(t, c.State().CouponID)
	assert.True(t, c.Subtotal().IsZero())
}
