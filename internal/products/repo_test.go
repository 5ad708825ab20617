package products

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/dbtest"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int, promo *models.Promotion) *models.Product {
	t.Helper()
	p := &models.Product{
		SellerID:   uuid.New(),
		Name:       "Chitenge wrap",
		Slug:       "chitenge-" + uuid.NewString(),
		Price:      money.MustParse(price),
		Stock:      stock,
		IsActive:   true,
		IsApproved: true,
		Promotion:  promo,
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), p))
	return p
}

func TestRepositoryFindByIDPreloadsPromotion(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	seeded := seedProduct(t, db, "250", 3, &models.Promotion{
		DiscountType: enums.DiscountTypePercentage,
		Value:        money.MustParse("20"),
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:     true,
	})

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Promotion)
	assert.Equal(t, enums.DiscountTypePercentage, found.Promotion.DiscountType)
	assert.True(t, found.Price.Equal(money.MustParse("250")))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepositoryFindByIDsSkipsMissing(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	a := seedProduct(t, db, "10", 1, nil)
	b := seedProduct(t, db, "20", 1, nil)

	found, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Nil(t, found[a.ID].Promotion)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryDecrementStock(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	p := seedProduct(t, db, "10", 5, nil)

	require.NoError(t, repo.DecrementStock(context.Background(), p.ID, 3))
	assert.ErrorIs(t, repo.DecrementStock(context.Background(), p.ID, 3), ErrInsufficientStock)

	reloaded, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
	assert.Equal(t, 3, reloaded.SoldCount)

	require.NoError(t, repo.RestoreStock(context.Background(), p.ID, 3))
	reloaded, err = repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stock)
	assert.Equal(t, 0, reloaded.SoldCount)
}

func TestRepositoryDecrementStockConcurrentLastUnit(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	p := seedProduct(t, db, "10", 1, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.DecrementStock(context.Background(), p.ID, 1)
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	reloaded, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestProductValidateRejectsOverrideAbovePrice(t *testing.T) {
	db := dbtest.New(t)
	p := &models.Product{
		SellerID:        uuid.New(),
		Name:            "Bag",
		Slug:            "bag",
		Price:           money.MustParse("100"),
		DiscountedPrice: decimalPtr("120"),
		Stock:           1,
	}
	err := NewRepository(db).Create(context.Background(), p)
	assert.ErrorIs(t, err, models.ErrProductOverrideInvalid)
}
