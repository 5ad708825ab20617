package products

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
)

// Service exposes the price view of a product.
type Service interface {
	Quote(ctx context.Context, productID uuid.UUID) (*pricing.Quote, error)
}

type service struct {
	repo     Repository
	resolver *pricing.Resolver
}

// NewService wires the product service.
func NewService(repo Repository, resolver *pricing.Resolver) (Service, error) {
	if repo == nil {
		return nil, errors.New("product repository required")
	}
	if resolver == nil {
		return nil, errors.New("price resolver required")
	}
	return &service{repo: repo, resolver: resolver}, nil
}

func (s *service) Quote(ctx context.Context, productID uuid.UUID) (*pricing.Quote, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	quote := s.resolver.Quote(product)
	return &quote, nil
}
