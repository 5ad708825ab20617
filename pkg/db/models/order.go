package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
)

// Order is immutable after creation apart from the status and payment columns.
// DiscountAmount is frozen when the order is placed.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID            uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	FullName           string              `gorm:"column:full_name;not null"`
	Email              string              `gorm:"column:email;not null"`
	Phone              string              `gorm:"column:phone;not null"`
	Address            string              `gorm:"column:address;not null"`
	City               string              `gorm:"column:city;not null"`
	GPSLocation        *string             `gorm:"column:gps_location"`
	DeliveryOptionID   uuid.UUID           `gorm:"column:delivery_option_id;type:uuid;not null"`
	DeliveryOptionName string              `gorm:"column:delivery_option_name;not null"`
	DeliveryPrice      decimal.Decimal     `gorm:"column:delivery_price;type:numeric(12,2);not null"`
	CouponID           *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CouponCode         *string             `gorm:"column:coupon_code"`
	DiscountAmount     decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null"`
	PaymentReference   *string             `gorm:"column:payment_reference"`
	PaymentPhone       *string             `gorm:"column:payment_phone"`
	IsPaid             bool                `gorm:"column:is_paid;not null"`
	PaidAt             *time.Time          `gorm:"column:paid_at"`
	Status             enums.OrderStatus   `gorm:"column:status;type:varchar(16);not null;index"`
	TrackingNumber     string              `gorm:"column:tracking_number;not null;uniqueIndex"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}
