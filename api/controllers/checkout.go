package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/api/middleware"
	"github.com/stylebazaar/stylebazaar-backend/api/responses"
	"github.com/stylebazaar/stylebazaar-backend/api/validators"
	"github.com/stylebazaar/stylebazaar-backend/internal/checkout"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
)

type checkoutRequest struct {
	FullName         string    `json:"full_name" validate:"required,max=200"`
	Email            string    `json:"email" validate:"required,email"`
	Phone            string    `json:"phone" validate:"required,max=32"`
	Address          string    `json:"address" validate:"required"`
	City             string    `json:"city" validate:"required,max=100"`
	GPSLocation      *string   `json:"gps_location"`
	DeliveryOptionID uuid.UUID `json:"delivery_option_id" validate:"required"`
	PaymentMethod    string    `json:"payment_method" validate:"required"`
	CouponCode       string    `json:"coupon_code"`
}

// Checkout turns the session cart into an order and answers 201 with the
// order plus any coupon notice.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		buyerID, ok := middleware.BuyerIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method"))
			return
		}

		result, err := svc.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
			BuyerID:          buyerID,
			SessionID:        middleware.CartSessionFromContext(r.Context()),
			FullName:         strings.TrimSpace(payload.FullName),
			Email:            strings.TrimSpace(payload.Email),
			Phone:            strings.TrimSpace(payload.Phone),
			Address:          strings.TrimSpace(payload.Address),
			City:             strings.TrimSpace(payload.City),
			GPSLocation:      payload.GPSLocation,
			DeliveryOptionID: payload.DeliveryOptionID,
			PaymentMethod:    method,
			CouponCode:       strings.TrimSpace(payload.CouponCode),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
