package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

var testNow = time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		SellerID:   sellerID,
		Name:       "Chitenge dress",
		Slug:       "chitenge-dress-" + uuid.NewString(),
		Price:      money.MustParse(price),
		Stock:      stock,
		IsActive:   true,
		IsApproved: true,
	}
	require.NoError(t, products.NewRepository(db).Create(context.Background(), p))
	return p
}

type itemSpec struct {
	product  *models.Product
	price    string
	quantity int
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID uuid.UUID, createdAt time.Time, items ...itemSpec) *models.Order {
	t.Helper()
	order := &models.Order{
		BuyerID:            buyerID,
		FullName:           "Mwila Banda",
		Email:              "mwila@example.com",
		Phone:              "+260971000000",
		Address:            "Plot 12, Kabulonga Road",
		City:               "Lusaka",
		DeliveryOptionID:   uuid.New(),
		DeliveryOptionName: "Standard",
		DeliveryPrice:      money.MustParse("50"),
		DiscountAmount:     money.Zero,
		PaymentMethod:      enums.PaymentMethodCash,
		TrackingNumber:     NewTrackingNumber(createdAt),
		CreatedAt:          createdAt,
	}
	for _, spec := range items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   spec.product.ID,
			SellerID:    spec.product.SellerID,
			ProductName: spec.product.Name,
			Price:       money.MustParse(spec.price),
			Quantity:    spec.quantity,
		})
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), order))
	return order
}
