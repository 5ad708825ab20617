package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a seller listing. DiscountedPrice is the manual override set by the
// seller and takes priority over any promotion.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID        uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Name            string              `gorm:"column:name;not null"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountedPrice decimal.NullDecimal `gorm:"column:discounted_price;type:numeric(12,2)"`
	Stock           int                 `gorm:"column:stock;not null"`
	SoldCount       int                 `gorm:"column:sold_count;not null"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	IsApproved      bool                `gorm:"column:is_approved;not null"`
	Promotion       *Promotion          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

var (
	ErrProductNegativePrice   = errors.New("product price cannot be negative")
	ErrProductOverrideInvalid = errors.New("discounted price must be between zero and the regular price")
	ErrProductNegativeStock   = errors.New("product stock cannot be negative")
)

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return p.Validate()
}

// Validate enforces the pricing invariants of a listing. The manual override is
// a markdown, so it may never exceed the regular price.
func (p *Product) Validate() error {
	if p.Price.IsNegative() {
		return ErrProductNegativePrice
	}
	if p.DiscountedPrice.Valid {
		override := p.DiscountedPrice.Decimal
		if override.IsNegative() || override.GreaterThan(p.Price) {
			return ErrProductOverrideInvalid
		}
	}
	if p.Stock < 0 {
		return ErrProductNegativeStock
	}
	return nil
}

// Purchasable reports whether buyers may add the product to a cart.
func (p *Product) Purchasable() bool {
	return p != nil && p.IsActive && p.IsApproved && p.Stock > 0
}
