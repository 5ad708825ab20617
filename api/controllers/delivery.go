package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/api/responses"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
)

type deliveryOptionLister interface {
	ListActive(ctx context.Context) ([]models.DeliveryOption, error)
}

type deliveryOptionResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Price         string    `json:"price"`
	EstimatedDays string    `json:"estimated_days"`
}

func DeliveryOptions(repo deliveryOptionLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery repository unavailable"))
			return
		}
		options, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery options"))
			return
		}
		out := make([]deliveryOptionResponse, 0, len(options))
		for _, opt := range options {
			out = append(out, deliveryOptionResponse{
				ID:            opt.ID,
				Name:          opt.Name,
				Slug:          opt.Slug,
				Price:         money.String(opt.Price),
				EstimatedDays: opt.EstimatedDays,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
