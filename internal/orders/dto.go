package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

// ItemView is an order line with its frozen unit price.
type ItemView struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

// DeliveryView is the delivery option captured on the order.
type DeliveryView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
}

// OrderView is the buyer's full view of an order.
type OrderView struct {
	ID               uuid.UUID           `json:"id"`
	TrackingNumber   string              `json:"tracking_number"`
	Status           enums.OrderStatus   `json:"status"`
	IsPaid           bool                `json:"is_paid"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	FullName         string              `json:"full_name"`
	Email            string              `json:"email"`
	Phone            string              `json:"phone"`
	Address          string              `json:"address"`
	City             string              `json:"city"`
	GPSLocation      *string             `json:"gps_location,omitempty"`
	Delivery         DeliveryView        `json:"delivery"`
	CouponCode       *string             `json:"coupon_code,omitempty"`
	ItemsTotal       string              `json:"items_total"`
	DiscountAmount   string              `json:"discount_amount"`
	DeliveryPrice    string              `json:"delivery_price"`
	GrandTotal       string              `json:"grand_total"`
	Currency         string              `json:"currency"`
	Items            []ItemView          `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderSummary is one row of the buyer's order history.
type OrderSummary struct {
	ID             uuid.UUID         `json:"id"`
	TrackingNumber string            `json:"tracking_number"`
	Status         enums.OrderStatus `json:"status"`
	IsPaid         bool              `json:"is_paid"`
	ItemCount      int               `json:"item_count"`
	GrandTotal     string            `json:"grand_total"`
	Currency       string            `json:"currency"`
	CreatedAt      time.Time         `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SellerOrderView shows a seller only their own items of an order.
type SellerOrderView struct {
	ID             uuid.UUID           `json:"id"`
	TrackingNumber string              `json:"tracking_number"`
	Status         enums.OrderStatus   `json:"status"`
	NextStatuses   []enums.OrderStatus `json:"next_statuses"`
	IsPaid         bool                `json:"is_paid"`
	BuyerName      string              `json:"buyer_name"`
	Phone          string              `json:"phone"`
	Address        string              `json:"address"`
	City           string              `json:"city"`
	DeliveryOption string              `json:"delivery_option"`
	Items          []ItemView          `json:"items"`
	SellerSubtotal string              `json:"seller_subtotal"`
	Currency       string              `json:"currency"`
	CreatedAt      time.Time           `json:"created_at"`
}

// SellerOrderList wraps paginated seller orders plus the next cursor.
type SellerOrderList struct {
	Orders     []SellerOrderView `json:"orders"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// NewOrderView renders a stored order using the frozen discount.
func NewOrderView(order *models.Order) *OrderView {
	totals := TotalsFor(order)
	return &OrderView{
		ID:               order.ID,
		TrackingNumber:   order.TrackingNumber,
		Status:           order.Status,
		IsPaid:           order.IsPaid,
		PaidAt:           order.PaidAt,
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		FullName:         order.FullName,
		Email:            order.Email,
		Phone:            order.Phone,
		Address:          order.Address,
		City:             order.City,
		GPSLocation:      order.GPSLocation,
		Delivery: DeliveryView{
			ID:    order.DeliveryOptionID,
			Name:  order.DeliveryOptionName,
			Price: money.String(totals.DeliveryPrice),
		},
		CouponCode:     order.CouponCode,
		ItemsTotal:     money.String(totals.ItemsTotal),
		DiscountAmount: money.String(totals.DiscountAmount),
		DeliveryPrice:  money.String(totals.DeliveryPrice),
		GrandTotal:     money.String(totals.GrandTotal),
		Currency:       money.Currency,
		Items:          itemViews(order.Items),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}

func newOrderSummary(order *models.Order) OrderSummary {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return OrderSummary{
		ID:             order.ID,
		TrackingNumber: order.TrackingNumber,
		Status:         order.Status,
		IsPaid:         order.IsPaid,
		ItemCount:      count,
		GrandTotal:     money.String(TotalsFor(order).GrandTotal),
		Currency:       money.Currency,
		CreatedAt:      order.CreatedAt,
	}
}

// newSellerOrderView expects order.Items to hold only the seller's items.
func newSellerOrderView(order *models.Order, sellerID uuid.UUID) *SellerOrderView {
	return &SellerOrderView{
		ID:             order.ID,
		TrackingNumber: order.TrackingNumber,
		Status:         order.Status,
		NextStatuses:   NextStatuses(order.Status),
		IsPaid:         order.IsPaid,
		BuyerName:      order.FullName,
		Phone:          order.Phone,
		Address:        order.Address,
		City:           order.City,
		DeliveryOption: order.DeliveryOptionName,
		Items:          itemViews(order.Items),
		SellerSubtotal: money.String(SellerSubtotal(order.Items, sellerID)),
		Currency:       money.Currency,
		CreatedAt:      order.CreatedAt,
	}
}

func itemViews(items []models.OrderItem) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, ItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			SellerID:    item.SellerID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   money.String(item.Price),
			LineTotal:   money.String(money.Line(item.Price, item.Quantity)),
		})
	}
	return views
}
