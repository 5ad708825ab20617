package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/internal/cart"
	"github.com/stylebazaar/stylebazaar-backend/internal/coupons"
	"github.com/stylebazaar/stylebazaar-backend/internal/delivery"
	"github.com/stylebazaar/stylebazaar-backend/internal/orders"
	"github.com/stylebazaar/stylebazaar-backend/internal/pricing"
	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	pkgcheckout "github.com/stylebazaar/stylebazaar-backend/pkg/checkout"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/money"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type recorder interface {
	ObservePlaced(duration time.Duration, couponRedeemed bool)
	ObserveFailed(duration time.Duration, reason string)
}

type noopRecorder struct{}

func (noopRecorder) ObservePlaced(time.Duration, bool)   {}
func (noopRecorder) ObserveFailed(time.Duration, string) {}

// PlaceOrderInput is everything the buyer submits with the checkout form.
// CouponCode, when set, replaces the coupon attached to the cart session.
type PlaceOrderInput struct {
	BuyerID          uuid.UUID
	SessionID        string
	FullName         string
	Email            string
	Phone            string
	Address          string
	City             string
	GPSLocation      *string
	DeliveryOptionID uuid.UUID
	PaymentMethod    enums.PaymentMethod
	CouponCode       string
}

// Result is the committed order plus any notice about the session coupon.
type Result struct {
	Order  *orders.OrderView `json:"order"`
	Notice string            `json:"notice,omitempty"`
}

// Service places orders from session carts.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Result, error)
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx       txRunner
	Carts    cart.Store
	Products products.Repository
	Coupons  coupons.Repository
	Delivery delivery.Repository
	Orders   orders.Repository
	Outbox   outboxEmitter
	Resolver *pricing.Resolver
	Metrics  recorder
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	carts    cart.Store
	products products.Repository
	coupons  coupons.Repository
	delivery delivery.Repository
	orders   orders.Repository
	outbox   outboxEmitter
	resolver *pricing.Resolver
	metrics  recorder
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart store required")
	case params.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupon repository required")
	case params.Delivery == nil:
		return nil, fmt.Errorf("delivery repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Resolver == nil:
		return nil, fmt.Errorf("price resolver required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopRecorder{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:       params.Tx,
		carts:    params.Carts,
		products: params.Products,
		coupons:  params.Coupons,
		delivery: params.Delivery,
		orders:   params.Orders,
		outbox:   params.Outbox,
		resolver: params.Resolver,
		metrics:  metrics,
		logg:     logg,
	}, nil
}

// PlaceOrder turns the session cart into an order. Items are charged at the
// live current price, the coupon discount is computed once and frozen, the
// delivery price is captured, and stock and coupon usage move in the same
// transaction as the order rows. Any failure rolls everything back.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Result, error) {
	started := time.Now()
	result, err := s.placeOrder(ctx, input)
	if err != nil {
		reason := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			reason = string(typed.Code())
		}
		s.metrics.ObserveFailed(time.Since(started), reason)
		return nil, err
	}
	s.metrics.ObservePlaced(time.Since(started), result.Order.CouponCode != nil)
	return result, nil
}

func (s *service) placeOrder(ctx context.Context, input PlaceOrderInput) (*Result, error) {
	input = normalize(input)
	if err := validate(input); err != nil {
		return nil, err
	}

	state, err := s.carts.Load(ctx, input.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}
	if state.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty.")
	}

	coupon, notice, err := s.resolveCoupon(ctx, input, state)
	if err != nil {
		return nil, err
	}
	fromSession := input.CouponCode == "" && coupon != nil

	var (
		order          *models.Order
		couponRejected bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		found, err := productRepo.FindByIDs(ctx, state.ProductIDs())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
		}
		if err := checkPurchasable(state, found); err != nil {
			return err
		}

		priced := cart.New(state, found, nil, s.resolver)
		lines := priced.Lines()
		if err := checkStock(lines); err != nil {
			return err
		}

		option, err := s.delivery.WithTx(tx).FindActive(ctx, input.DeliveryOptionID)
		if err != nil {
			if errors.Is(err, delivery.ErrOptionUnavailable) {
				return pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid delivery option.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery option")
		}

		itemsTotal := priced.Subtotal()
		discount := decimal.Zero
		if coupon != nil {
			if err := s.coupons.WithTx(tx).IncrementUsage(ctx, coupon.ID, s.resolver.Now().UTC()); err != nil {
				if coupons.IsRejection(err) {
					couponRejected = true
					return pkgerrors.New(pkgerrors.CodeValidation, coupons.UserMessage(err))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
			}
			discount = coupons.Discount(coupon, itemsTotal)
		}

		order = buildOrder(input, option, coupon, discount, lines, s.resolver.Now())
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := decrementStock(ctx, productRepo, order.Items); err != nil {
			return err
		}

		return s.emitOrderCreated(ctx, tx, order, itemsTotal)
	})
	if err != nil {
		if couponRejected && fromSession {
			state.CouponID = nil
			if saveErr := s.carts.Save(ctx, input.SessionID, state); saveErr != nil {
				s.logg.Error(ctx, "checkout.coupon_detach_failed", saveErr)
			}
		}
		return nil, err
	}

	if err := s.carts.Delete(ctx, input.SessionID); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "checkout.cart_clear_failed", err)
	}

	view := orders.NewOrderView(order)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":        order.ID.String(),
		"tracking_number": order.TrackingNumber,
		"grand_total":     view.GrandTotal,
		"items":           len(order.Items),
	})
	s.logg.Info(logCtx, "checkout.order_created")

	return &Result{Order: view, Notice: notice}, nil
}

// resolveCoupon picks the coupon for this checkout. An explicit code must be
// valid. A session coupon that is gone or no longer valid is detached and the
// checkout continues without a discount.
func (s *service) resolveCoupon(ctx context.Context, input PlaceOrderInput, state *cart.State) (*models.Coupon, string, error) {
	now := s.resolver.Now()
	if input.CouponCode != "" {
		coupon, err := s.coupons.FindByCode(ctx, input.CouponCode)
		if err != nil && !errors.Is(err, coupons.ErrCouponNotFound) {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}
		if err := coupons.Validate(coupon, now); err != nil {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, coupons.UserMessage(err))
		}
		return coupon, "", nil
	}
	if state.CouponID == nil {
		return nil, "", nil
	}

	coupon, err := s.coupons.FindByID(ctx, *state.CouponID)
	if err != nil && !errors.Is(err, coupons.ErrCouponNotFound) {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if verr := coupons.Validate(coupon, now); verr != nil {
		s.logg.Warn(s.logg.WithField(ctx, "coupon_id", state.CouponID.String()), "checkout.coupon_dropped")
		state.CouponID = nil
		if err := s.carts.Save(ctx, input.SessionID, state); err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
		}
		return nil, coupons.UserMessage(verr) + " Your order was placed without a discount.", nil
	}
	return coupon, "", nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, itemsTotal decimal.Decimal) error {
	sellers := make([]uuid.UUID, 0, len(order.Items))
	seen := make(map[uuid.UUID]struct{}, len(order.Items))
	for _, item := range order.Items {
		if _, ok := seen[item.SellerID]; ok {
			continue
		}
		seen[item.SellerID] = struct{}{}
		sellers = append(sellers, item.SellerID)
	}
	grand := orders.GrandTotal(itemsTotal, order.DiscountAmount, order.DeliveryPrice)
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{ID: order.BuyerID, Role: "buyer"},
		Data: payloads.OrderCreatedEvent{
			OrderID:        order.ID,
			BuyerID:        order.BuyerID,
			SellerIDs:      sellers,
			TrackingNumber: order.TrackingNumber,
			ItemsTotal:     money.String(itemsTotal),
			DiscountAmount: money.String(order.DiscountAmount),
			DeliveryPrice:  money.String(order.DeliveryPrice),
			GrandTotal:     money.String(grand),
			CouponCode:     order.CouponCode,
			Currency:       money.Currency,
		},
	})
}

func buildOrder(input PlaceOrderInput, option *models.DeliveryOption, coupon *models.Coupon, discount decimal.Decimal, lines []cart.Line, now time.Time) *models.Order {
	order := &models.Order{
		BuyerID:            input.BuyerID,
		FullName:           input.FullName,
		Email:              input.Email,
		Phone:              input.Phone,
		Address:            input.Address,
		City:               input.City,
		GPSLocation:        input.GPSLocation,
		DeliveryOptionID:   option.ID,
		DeliveryOptionName: option.Name,
		DeliveryPrice:      money.Round(option.Price),
		DiscountAmount:     money.Round(discount),
		PaymentMethod:      input.PaymentMethod,
		Status:             enums.OrderStatusPending,
		TrackingNumber:     orders.NewTrackingNumber(now),
		Items:              make([]models.OrderItem, 0, len(lines)),
	}
	if coupon != nil {
		id := coupon.ID
		code := coupon.Code
		order.CouponID = &id
		order.CouponCode = &code
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   line.ProductID,
			SellerID:    line.Product.SellerID,
			ProductName: line.Product.Name,
			Price:       money.Round(line.UnitPrice),
			Quantity:    line.Quantity,
		})
	}
	return order
}

// decrementStock walks products in id order so concurrent checkouts touching
// the same products take row locks in the same sequence.
func decrementStock(ctx context.Context, repo products.Repository, items []models.OrderItem) error {
	sorted := make([]models.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID.String() < sorted[j].ProductID.String()
	})
	for _, item := range sorted {
		if err := repo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, products.ErrInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("%s is out of stock.", item.ProductName)).
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
	}
	return nil
}

func checkPurchasable(state *cart.State, found map[uuid.UUID]*models.Product) error {
	var unavailable []uuid.UUID
	for _, entry := range state.Entries {
		product, ok := found[entry.ProductID]
		if !ok || !product.IsActive || !product.IsApproved {
			unavailable = append(unavailable, entry.ProductID)
		}
	}
	if len(unavailable) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "Some items in your cart are no longer available.").
		WithDetails(map[string]any{"product_ids": unavailable})
}

func checkStock(lines []cart.Line) error {
	inputs := make([]pkgcheckout.StockValidationInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, pkgcheckout.StockValidationInput{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Available:   line.Product.Stock,
			Quantity:    line.Quantity,
		})
	}
	return pkgcheckout.ValidateStock(inputs)
}

func normalize(input PlaceOrderInput) PlaceOrderInput {
	input.SessionID = strings.TrimSpace(input.SessionID)
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	input.City = strings.TrimSpace(input.City)
	input.CouponCode = strings.ToUpper(strings.TrimSpace(input.CouponCode))
	if input.GPSLocation != nil {
		gps := strings.TrimSpace(*input.GPSLocation)
		if gps == "" {
			input.GPSLocation = nil
		} else {
			input.GPSLocation = &gps
		}
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = enums.PaymentMethodCash
	}
	return input
}

func validate(input PlaceOrderInput) error {
	if input.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	if input.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty.")
	}
	if input.DeliveryOptionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid delivery option.")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid payment method.")
	}
	return pkgcheckout.ValidateDelivery(pkgcheckout.DeliveryInput{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		City:     input.City,
	})
}
