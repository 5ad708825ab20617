package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

// Totals is the money breakdown of an order.
type Totals struct {
	ItemsTotal     decimal.Decimal
	DiscountAmount decimal.Decimal
	DeliveryPrice  decimal.Decimal
	GrandTotal     decimal.Decimal
}

// ItemsTotal recomputes the sum of price x quantity over the stored items.
// Items never change after creation, so the result is stable.
func ItemsTotal(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(money.Line(item.Price, item.Quantity))
	}
	return money.Round(total)
}

// GrandTotal is items minus discount, floored at zero, plus delivery. The
// discount can never eat into the delivery fee.
func GrandTotal(itemsTotal, discount, delivery decimal.Decimal) decimal.Decimal {
	return money.Round(money.FloorZero(itemsTotal.Sub(discount)).Add(delivery))
}

// DiscountAmount returns the discount frozen on the order when it was placed.
// Later changes to the coupon do not affect it.
func DiscountAmount(order *models.Order) decimal.Decimal {
	if order == nil {
		return decimal.Zero
	}
	return money.Round(order.DiscountAmount)
}

// TotalsFor derives the breakdown of a stored order from its items and the
// frozen discount and delivery price.
func TotalsFor(order *models.Order) Totals {
	if order == nil {
		return Totals{}
	}
	items := ItemsTotal(order.Items)
	discount := DiscountAmount(order)
	delivery := money.Round(order.DeliveryPrice)
	return Totals{
		ItemsTotal:     items,
		DiscountAmount: discount,
		DeliveryPrice:  delivery,
		GrandTotal:     GrandTotal(items, discount, delivery),
	}
}

// SellerSubtotal sums the items that belong to one seller.
func SellerSubtotal(items []models.OrderItem, sellerID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.SellerID == sellerID {
			total = total.Add(money.Line(item.Price, item.Quantity))
		}
	}
	return money.Round(total)
}
