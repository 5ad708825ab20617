package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout commits a new order. Amounts are
// decimal strings with two fractional digits.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID   `json:"order_id"`
	BuyerID        uuid.UUID   `json:"buyer_id"`
	SellerIDs      []uuid.UUID `json:"seller_ids"`
	TrackingNumber string      `json:"tracking_number"`
	ItemsTotal     string      `json:"items_total"`
	DiscountAmount string      `json:"discount_amount"`
	DeliveryPrice  string      `json:"delivery_price"`
	GrandTotal     string      `json:"grand_total"`
	CouponCode     *string     `json:"coupon_code,omitempty"`
	Currency       string      `json:"currency"`
}

// OrderPaidEvent is emitted once a payment settles an order.
type OrderPaidEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	BuyerID          uuid.UUID           `json:"buyer_id"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	PaymentReference string              `json:"payment_reference"`
	Amount           string              `json:"amount"`
	PaidAt           time.Time           `json:"paid_at"`
}

// OrderStatusChangedEvent records a fulfilment status transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	Reason     string            `json:"reason,omitempty"`
	ChangedAt  time.Time         `json:"changed_at"`
}
