package coupons

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/dbtest"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
)

func seedCoupon(t *testing.T, db *gorm.DB, code string, maxUses *int, used int) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		Code:            code,
		DiscountPercent: 10,
		ValidFrom:       time.Now().UTC().Add(-time.Hour),
		Active:          true,
		MaxUses:         maxUses,
		UsedCount:       used,
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), c))
	return c
}

func TestRepositoryFindByCodeCaseInsensitive(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	created := seedCoupon(t, db, " welcome5 ", nil, 0)
	assert.Equal(t, "WELCOME5", created.Code)

	found, err := repo.FindByCode(context.Background(), "Welcome5")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCouponNotFound)

	_, err = repo.FindByCode(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestRepositoryIncrementUsageRespectsCap(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	c := seedCoupon(t, db, "LAST1", intPtr(2), 1)

	require.NoError(t, repo.IncrementUsage(context.Background(), c.ID, time.Now().UTC()))
	assert.ErrorIs(t, repo.IncrementUsage(context.Background(), c.ID, time.Now().UTC()), ErrCouponExhausted)

	reloaded, err := repo.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.UsedCount)
	assert.False(t, IsValid(reloaded, time.Now()))
}

func TestRepositoryIncrementUsageConcurrent(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	c := seedCoupon(t, db, "RACE", intPtr(1), 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.IncrementUsage(context.Background(), c.ID, time.Now().UTC())
		}()
	}
	wg.Wait()
	close(results)

	var ok, exhausted int
	for err := range results {
		switch err {
		case nil:
			ok++
		case ErrCouponExhausted:
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, exhausted)
}

func TestRepositoryIncrementUsageUnlimited(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	c := seedCoupon(t, db, "OPEN", nil, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementUsage(context.Background(), c.ID, time.Now().UTC()))
	}
	reloaded, err := repo.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.UsedCount)
}

func TestRepositoryIncrementUsageChecksWindow(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	ended := seedCoupon(t, db, "ENDED", nil, 0)
	endedAt := now.Add(-time.Minute)
	require.NoError(t, db.Model(&models.Coupon{}).Where("id = ?", ended.ID).Update("valid_to", endedAt).Error)
	assert.ErrorIs(t, repo.IncrementUsage(ctx, ended.ID, now), ErrCouponExpired)

	early := seedCoupon(t, db, "EARLY", nil, 0)
	require.NoError(t, db.Model(&models.Coupon{}).Where("id = ?", early.ID).Update("valid_from", now.Add(time.Hour)).Error)
	assert.ErrorIs(t, repo.IncrementUsage(ctx, early.ID, now), ErrCouponNotStarted)

	for _, c := range []*models.Coupon{ended, early} {
		reloaded, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Zero(t, reloaded.UsedCount, c.Code)
	}
}
