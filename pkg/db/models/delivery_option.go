package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeliveryOption is a shipping method buyers pick at checkout.
type DeliveryOption struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Slug          string          `gorm:"column:slug;not null;uniqueIndex"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	EstimatedDays string          `gorm:"column:estimated_days;not null"`
	IsActive      bool            `gorm:"column:is_active;not null"`
	DisplayOrder  int             `gorm:"column:display_order;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (DeliveryOption) TableName() string { return "delivery_options" }

func (d *DeliveryOption) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
