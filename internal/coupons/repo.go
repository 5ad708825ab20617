package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
)

// Repository persists coupons and their usage counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, id uuid.UUID, now time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// FindByCode looks a coupon up case-insensitively. Missing codes return
// ErrCouponNotFound.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, ErrCouponNotFound
	}
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("UPPER(code) = ?", normalized).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsage bumps used_count by one only while the coupon is active,
// inside its validity window at now and below its cap, so two racing orders
// cannot both take the last use. A rejected increment reports the rule the
// coupon breaks, falling back to ErrCouponExhausted.
func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND active = ?", id, true).
		Where("valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)", now, now).
		Where("max_uses IS NULL OR used_count < max_uses").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := Validate(current, now); err != nil {
		return err
	}
	return ErrCouponExhausted
}
