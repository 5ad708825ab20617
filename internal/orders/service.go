package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/internal/products"
	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
	"github.com/stylebazaar/stylebazaar-backend/pkg/logger"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox"
	"github.com/stylebazaar/stylebazaar-backend/pkg/outbox/payloads"
	"github.com/stylebazaar/stylebazaar-backend/pkg/pagination"
)

// ReasonPaymentTimeout marks orders cancelled because they were never paid.
const ReasonPaymentTimeout = "payment_timeout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// InventoryReleaser returns stock when an order is cancelled.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// UpdateStatusInput is a seller's request to move an order along.
type UpdateStatusInput struct {
	OrderID  uuid.UUID
	SellerID uuid.UUID
	Status   enums.OrderStatus
	Reason   string
}

// PayInput is a buyer's simulated payment.
type PayInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Method  enums.PaymentMethod
	Phone   string
}

// Service exposes order reads, the status machine and payment.
type Service interface {
	Get(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderView, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*SellerOrderView, error)
	Pay(ctx context.Context, input PayInput) (*OrderView, error)
	ExpireUnpaid(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxEmitter
	Inventory InventoryReleaser
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxEmitter
	inventory InventoryReleaser
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		inventory: params.Inventory,
		logg:      logg,
		now:       now,
	}, nil
}

func (s *service) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderView, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	order, err := s.repo.FindForBuyer(ctx, orderID, buyerID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return NewOrderView(order), nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	page, err := s.repo.ListForBuyer(ctx, buyerID, params)
	if err != nil {
		return nil, mapListError(err)
	}
	list := &OrderList{Orders: make([]OrderSummary, 0, len(page.Orders)), NextCursor: page.NextCursor}
	for i := range page.Orders {
		list.Orders = append(list.Orders, newOrderSummary(&page.Orders[i]))
	}
	return list, nil
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	page, err := s.repo.ListForSeller(ctx, sellerID, params)
	if err != nil {
		return nil, mapListError(err)
	}
	list := &SellerOrderList{Orders: make([]SellerOrderView, 0, len(page.Orders)), NextCursor: page.NextCursor}
	for i := range page.Orders {
		list.Orders = append(list.Orders, *newSellerOrderView(&page.Orders[i], sellerID))
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*SellerOrderView, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var view *SellerOrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForSeller(ctx, input.OrderID, input.SellerID)
		if err != nil {
			return mapLoadError(err)
		}
		if order.Status == input.Status {
			view = newSellerOrderView(order, input.SellerID)
			return nil
		}
		if !CanTransition(order.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status)).
				WithDetails(map[string]any{
					"from":    order.Status,
					"to":      input.Status,
					"allowed": NextStatuses(order.Status),
				})
		}

		actor := &outbox.ActorRef{ID: input.SellerID, Role: "seller"}
		if err := s.transition(ctx, tx, order, input.Status, input.Reason, actor); err != nil {
			return err
		}
		order.Status = input.Status
		view = newSellerOrderView(order, input.SellerID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":  input.OrderID.String(),
		"seller_id": input.SellerID.String(),
		"status":    input.Status,
	})
	s.logg.Info(logCtx, "orders.status_updated")
	return view, nil
}

func (s *service) Pay(ctx context.Context, input PayInput) (*OrderView, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	// cash is settled on delivery, never through this endpoint
	if !input.Method.IsMobileMoney() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid payment method.")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "A phone number is required for mobile money payments.")
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForBuyer(ctx, input.OrderID, input.BuyerID)
		if err != nil {
			return mapLoadError(err)
		}
		if order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "This order has already been paid.")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Cancelled orders cannot be paid.")
		}

		update := PaymentUpdate{
			Method:    input.Method,
			Reference: NewPaymentReference(),
			PaidAt:    s.now().UTC(),
		}
		if phone != "" {
			update.Phone = &phone
		}
		if err := repo.MarkPaid(ctx, order.ID, update); err != nil {
			if errors.Is(err, ErrStaleOrder) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "This order has already been paid.")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		order.IsPaid = true
		order.PaidAt = &update.PaidAt
		order.PaymentMethod = update.Method
		order.PaymentReference = &update.Reference
		order.PaymentPhone = update.Phone
		view = NewOrderView(order)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ID: input.BuyerID, Role: "buyer"},
			Data: payloads.OrderPaidEvent{
				OrderID:          order.ID,
				BuyerID:          order.BuyerID,
				PaymentMethod:    update.Method,
				PaymentReference: update.Reference,
				Amount:           view.GrandTotal,
				PaidAt:           update.PaidAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithOrderID(ctx, input.OrderID.String()), map[string]any{
		"payment_method": input.Method,
		"phone_number":   strings.TrimSpace(input.Phone),
	})
	s.logg.Info(logCtx, "orders.paid")
	return view, nil
}

// ExpireUnpaid cancels pending orders that were not paid before cutoff and
// returns their stock. Each order is handled in its own transaction so one
// failure does not block the rest.
func (s *service) ExpireUnpaid(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	candidates, err := s.repo.ListExpiredUnpaid(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired orders")
	}

	expired := 0
	var errs error
	for i := range candidates {
		order := &candidates[i]
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).CancelUnpaid(ctx, order.ID); err != nil {
				return err
			}
			return s.settle(ctx, tx, order, enums.OrderStatusPending, enums.OrderStatusCancelled, ReasonPaymentTimeout, &outbox.ActorRef{Role: "system"})
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrStaleOrder):
			// paid or moved on since it was listed
			s.logg.Debug(s.logg.WithOrderID(ctx, order.ID.String()), "orders.expire_skipped")
		default:
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
		}
	}

	if expired > 0 {
		logCtx := s.logg.WithField(ctx, "expired", expired)
		s.logg.Info(logCtx, "orders.unpaid_expired")
	}
	return expired, errs
}

// transition applies a status change inside tx, restocking the order's items
// when it is cancelled, and records the change in the outbox.
func (s *service) transition(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, reason string, actor *outbox.ActorRef) error {
	from := order.Status
	repo := s.repo.WithTx(tx)
	if err := repo.UpdateStatus(ctx, order.ID, from, to); err != nil {
		if errors.Is(err, ErrStaleOrder) {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order status changed, reload and retry")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	return s.settle(ctx, tx, order, from, to, reason, actor)
}

// settle runs the side effects of a status change that was already written:
// restocking on cancel and the outbox record.
func (s *service) settle(ctx context.Context, tx *gorm.DB, order *models.Order, from, to enums.OrderStatus, reason string, actor *outbox.ActorRef) error {
	repo := s.repo.WithTx(tx)
	if to == enums.OrderStatusCancelled {
		// the seller view only preloads the seller's own items
		full, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		for _, item := range full.Items {
			if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			FromStatus: from,
			ToStatus:   to,
			Reason:     reason,
			ChangedAt:  s.now().UTC(),
		},
	})
}

type inventoryReleaser struct {
	products products.Repository
}

// NewInventoryReleaser returns stock through the product repository.
func NewInventoryReleaser(repo products.Repository) InventoryReleaser {
	return &inventoryReleaser{products: repo}
}

func (r *inventoryReleaser) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return r.products.WithTx(tx).RestoreStock(ctx, productID, qty)
}

func mapLoadError(err error) error {
	if errors.Is(err, ErrOrderNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func mapListError(err error) error {
	if errors.Is(err, ErrInvalidCursor) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}
