package cart

import (
	"github.com/google/uuid"
)

type addItemRequest struct {
	ProductID        uuid.UUID `json:"product_id" validate:"required"`
	Quantity         int       `json:"quantity" validate:"min=1,max=999"`
	OverrideQuantity bool      `json:"override_quantity"`
}

type updateItemRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
