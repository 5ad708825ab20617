package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCouponPercentOutOfRange = errors.New("coupon discount percent must be between 1 and 100")
	ErrCouponCodeRequired      = errors.New("coupon code is required")
)

// Coupon is an order-level percentage discount code. Codes are stored upper
// cased and compared case-insensitively.
type Coupon struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Code            string     `gorm:"column:code;type:varchar(50);not null;uniqueIndex"`
	DiscountPercent int        `gorm:"column:discount_percent;not null"`
	ValidFrom       time.Time  `gorm:"column:valid_from;not null"`
	ValidTo         *time.Time `gorm:"column:valid_to"`
	Active          bool       `gorm:"column:active;not null"`
	MaxUses         *int       `gorm:"column:max_uses"`
	UsedCount       int        `gorm:"column:used_count;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Coupon) TableName() string { return "coupons" }

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return c.normalize()
}

func (c *Coupon) normalize() error {
	c.Code = NormalizeCouponCode(c.Code)
	if c.Code == "" {
		return ErrCouponCodeRequired
	}
	if c.DiscountPercent < 1 || c.DiscountPercent > 100 {
		return ErrCouponPercentOutOfRange
	}
	return nil
}

// NormalizeCouponCode trims and upper-cases a buyer supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
