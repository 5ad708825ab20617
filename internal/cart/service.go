package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stylebazaar/stylebazaar-backend/internal/coupons"
	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

type couponLoader interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
}

// AddItemInput is the payload for putting a product in the cart.
type AddItemInput struct {
	ProductID        uuid.UUID
	Quantity         int
	OverrideQuantity bool
}

// Service exposes session cart operations.
type Service interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	View(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	UpdateItem(ctx context.Context, sessionID string, productID uuid.UUID, delta int) (*View, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*View, error)
	Clear(ctx context.Context, sessionID string) error
	ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*View, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Store    Store
	Products productLoader
	Coupons  couponLoader
	Resolver *pricing.Resolver
	Logger   *logger.Logger
}

type service struct {
	store    Store
	products productLoader
	coupons  couponLoader
	resolver *pricing.Resolver
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon loader required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:    params.Store,
		products: params.Products,
		coupons:  params.Coupons,
		resolver: params.Resolver,
		logg:     logg,
	}, nil
}

// Load joins the stored session with live products and the applied coupon.
// A coupon that no longer exists is detached and the session rewritten.
func (s *service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}
	found, err := s.products.FindByIDs(ctx, state.ProductIDs())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	var coupon *models.Coupon
	if state.CouponID != nil {
		coupon, err = s.coupons.FindByID(ctx, *state.CouponID)
		switch {
		case errors.Is(err, coupons.ErrCouponNotFound):
			s.logg.Warn(s.logg.WithField(ctx, "coupon_id", state.CouponID.String()), "cart.coupon_dangling")
			state.CouponID = nil
			coupon = nil
			if err := s.store.Save(ctx, sessionID, state); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
			}
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart coupon")
		}
	}
	return New(state, found, coupon, s.resolver), nil
}

func (s *service) View(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(sessionID, c), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadPurchasable(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	next := input.Quantity
	if entry, ok := c.State().Entry(product.ID); ok && !input.OverrideQuantity {
		next += entry.Quantity
	}
	if err := checkStock(product, next); err != nil {
		return nil, err
	}

	c.Add(product, input.Quantity, nil, input.OverrideQuantity)
	return s.persist(ctx, sessionID, c)
}

// UpdateItem applies a signed quantity change. The entry keeps the price
// snapshot it was created with.
func (s *service) UpdateItem(ctx context.Context, sessionID string, productID uuid.UUID, delta int) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return NewView(sessionID, c), nil
	}

	entry, inCart := c.State().Entry(productID)
	if delta < 0 {
		if !inCart {
			return NewView(sessionID, c), nil
		}
		c.State().Add(productID, delta, entry.Price, false, s.resolver.Now())
		return s.persist(ctx, sessionID, c)
	}

	product, err := s.loadPurchasable(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, entry.Quantity+delta); err != nil {
		return nil, err
	}
	c.Add(product, delta, nil, false)
	return s.persist(ctx, sessionID, c)
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	return s.persist(ctx, sessionID, c)
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart session")
	}
	return nil
}

// ApplyCoupon attaches a coupon by code. Unknown or invalid codes detach any
// coupon already on the cart and report why.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (*View, error) {
	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please enter a coupon code.")
	}
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	coupon, err := s.coupons.FindByCode(ctx, normalized)
	if err != nil && !errors.Is(err, coupons.ErrCouponNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}
	if applyErr := c.ApplyCoupon(coupon); applyErr != nil {
		if _, err := s.persist(ctx, sessionID, c); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, coupons.UserMessage(applyErr)).
			WithDetails(map[string]string{"code": normalized})
	}

	view, err := s.persist(ctx, sessionID, c)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "coupon_code", coupon.Code), "cart.coupon_applied")
	return view, nil
}

func (s *service) RemoveCoupon(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.DetachCoupon()
	return s.persist(ctx, sessionID, c)
}

func (s *service) loadPurchasable(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.Purchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is currently unavailable.", product.Name))
	}
	return product, nil
}

func checkStock(product *models.Product, quantity int) error {
	if quantity > product.Stock {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Only %d of %s left in stock.", product.Stock, product.Name)).
			WithDetails(map[string]any{"product_id": product.ID, "available": product.Stock})
	}
	return nil
}

func (s *service) persist(ctx context.Context, sessionID string, c *Cart) (*View, error) {
	if err := s.store.Save(ctx, sessionID, c.State()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return NewView(sessionID, c), nil
}
