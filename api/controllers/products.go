package controllers

import (
	"net/http"

	"github.com/stylebazaar/stylebazaar-backend/api/responses"
	"github.com/stylebazaar/stylebazaar-backend/api/validators"
	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

type priceResponse struct {
	ProductID          string `json:"product_id"`
	Price              string `json:"price"`
	OriginalPrice      string `json:"original_price"`
	Savings            string `json:"savings"`
	HasActivePromotion bool   `json:"has_active_promotion"`
	Currency           string `json:"currency"`
}

func newPriceResponse(q *pricing.Quote) priceResponse {
	return priceResponse{
		ProductID:          q.ProductID,
		Price:              money.String(q.UnitPrice),
		OriginalPrice:      money.String(q.BasePrice),
		Savings:            money.String(q.Savings),
		HasActivePromotion: q.HasActivePromotion,
		Currency:           money.Currency,
	}
}

// ProductPrice returns the current price view for one product.
func ProductPrice(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPriceResponse(quote))
	}
}
