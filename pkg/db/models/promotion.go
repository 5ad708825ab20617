package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
)

var (
	ErrPromotionValueNotPositive = errors.New("promotion value must be greater than zero")
	ErrPromotionPercentTooLarge  = errors.New("percentage promotion cannot exceed 100")
	ErrPromotionEndBeforeStart   = errors.New("promotion end date cannot precede its start date")
	ErrPromotionUnknownType      = errors.New("unknown promotion discount type")
)

var hundred = decimal.NewFromInt(100)

// Promotion is a date-bounded discount owned by exactly one product. StartDate
// and EndDate are calendar dates; only their year, month and day are read.
type Promotion struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;type:varchar(16);not null"`
	Value        decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	StartDate    time.Time          `gorm:"column:start_date;type:date;not null"`
	EndDate      *time.Time         `gorm:"column:end_date;type:date"`
	IsActive     bool               `gorm:"column:is_active;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Promotion) TableName() string { return "promotions" }

func (p *Promotion) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return p.Validate()
}

// Validate enforces the promotion invariants.
func (p *Promotion) Validate() error {
	if !p.DiscountType.IsValid() {
		return ErrPromotionUnknownType
	}
	if !p.Value.IsPositive() {
		return ErrPromotionValueNotPositive
	}
	if p.DiscountType == enums.DiscountTypePercentage && p.Value.GreaterThan(hundred) {
		return ErrPromotionPercentTooLarge
	}
	if p.EndDate != nil && dateOnly(*p.EndDate).Before(dateOnly(p.StartDate)) {
		return ErrPromotionEndBeforeStart
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
