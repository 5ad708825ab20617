package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/internal/coupons"
	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/dbtest"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

type serviceHarness struct {
	svc     Service
	db      *gorm.DB
	store   *RedisStore
	coupons coupons.Repository
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()
	db := dbtest.New(t)
	store, _ := newTestStore(t, time.Hour)
	couponRepo := coupons.NewRepository(db)
	svc, err := NewService(ServiceParams{
		Store:    store,
		Products: products.NewRepository(db),
		Coupons:  couponRepo,
		Resolver: fixedResolver(),
	})
	require.NoError(t, err)
	return &serviceHarness{svc: svc, db: db, store: store, coupons: couponRepo}
}

func (h *serviceHarness) seedProduct(t *testing.T, price string, stock int, active bool) *models.Product {
	t.Helper()
	p := &models.Product{
		SellerID:   uuid.New(),
		Name:       "Kitenge shirt",
		Slug:       "kitenge-" + uuid.NewString(),
		Price:      money.MustParse(price),
		Stock:      stock,
		IsActive:   active,
		IsApproved: true,
	}
	require.NoError(t, h.db.Create(p).Error)
	return p
}

func (h *serviceHarness) seedCoupon(t *testing.T, code string, percent int) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		Code:            code,
		DiscountPercent: percent,
		ValidFrom:       testNow.Add(-time.Hour),
		Active:          true,
	}
	require.NoError(t, h.coupons.Create(context.Background(), c))
	return c
}

func TestServiceAddAndView(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	p := h.seedProduct(t, "250", 5, true)

	view, err := h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "500.00", view.Subtotal)
	assert.Equal(t, "500.00", view.Total)
	assert.Equal(t, "ZMW", view.Currency)

	view, err = h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)

	view, err = h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 1, OverrideQuantity: true})
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	again, err := h.svc.View(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, view.Subtotal, again.Subtotal)
}

func TestServiceAddRejectsUnavailableProducts(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()

	inactive := h.seedProduct(t, "100", 5, false)
	_, err := h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: inactive.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	soldOut := h.seedProduct(t, "100", 0, true)
	_, err = h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: soldOut.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	limited := h.seedProduct(t, "100", 2, true)
	_, err = h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: limited.ID, Quantity: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	_, err = h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: limited.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateKeepsSnapshot(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	p := h.seedProduct(t, "100", 10, true)

	_, err := h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, h.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", money.MustParse("120")).Error)

	view, err := h.svc.UpdateItem(ctx, "sess", p.ID, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "100.00", view.Items[0].SnapshotPrice)
	assert.Equal(t, "120.00", view.Items[0].UnitPrice)
	assert.Equal(t, "360.00", view.Subtotal)

	view, err = h.svc.UpdateItem(ctx, "sess", p.ID, -3)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	view, err = h.svc.UpdateItem(ctx, "sess", p.ID, -1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestServiceRemoveItemForDeletedProduct(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	p := h.seedProduct(t, "40", 3, true)
	_, err := h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, h.db.Delete(&models.Product{}, "id = ?", p.ID).Error)
	view, err := h.svc.View(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.False(t, view.Items[0].Available)
	assert.Equal(t, "80.00", view.Subtotal)

	view, err = h.svc.UpdateItem(ctx, "sess", p.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	view, err = h.svc.RemoveItem(ctx, "sess", p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = h.svc.RemoveItem(ctx, "sess", uuid.New())
	require.NoError(t, err)
}

func TestServiceApplyCoupon(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	p := h.seedProduct(t, "1000", 3, true)
	h.seedCoupon(t, "TENOFF", 10)
	_, err := h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := h.svc.ApplyCoupon(ctx, "sess", " tenoff ")
	require.NoError(t, err)
	require.NotNil(t, view.Coupon)
	assert.Equal(t, "TENOFF", view.Coupon.Code)
	assert.Equal(t, "100.00", view.Discount)
	assert.Equal(t, "900.00", view.Total)

	_, err = h.svc.ApplyCoupon(ctx, "sess", "NOPE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	view, err = h.svc.View(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, view.Coupon, "an invalid code clears the applied coupon")
	assert.Equal(t, "1000.00", view.Total)

	_, err = h.svc.ApplyCoupon(ctx, "sess", "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceDanglingCouponIsCleared(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	c := h.seedCoupon(t, "GONE", 20)
	_, err := h.svc.ApplyCoupon(ctx, "sess", "GONE")
	require.NoError(t, err)

	require.NoError(t, h.db.Delete(&models.Coupon{}, "id = ?", c.ID).Error)
	view, err := h.svc.View(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, view.Coupon)

	state, err := h.store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, state.CouponID)
}

func TestServiceRemoveCouponAndClear(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	p := h.seedProduct(t, "50", 3, true)
	h.seedCoupon(t, "HALF", 50)
	_, err := h.svc.AddItem(ctx, "sess", AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = h.svc.ApplyCoupon(ctx, "sess", "HALF")
	require.NoError(t, err)

	view, err := h.svc.RemoveCoupon(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, view.Coupon)
	assert.Equal(t, "100.00", view.Total)

	require.NoError(t, h.svc.Clear(ctx, "sess"))
	view, err = h.svc.View(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 0, view.ItemCount)
}
