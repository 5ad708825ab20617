package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
	"github.com/stylebazaar/stylebazaar-backend/pkg/enums"
	"github.com/stylebazaar/stylebazaar-backend/pkg/pagination"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrStaleOrder reports that a conditional update matched no row because
	// the order changed since it was read.
	ErrStaleOrder = errors.New("order was modified concurrently")
)

// Page is one cursor page of orders, newest first.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

// PaymentUpdate carries the columns written when an order is paid.
type PaymentUpdate struct {
	Method    enums.PaymentMethod
	Reference string
	Phone     *string
	PaidAt    time.Time
}

// Repository defines persistence for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.Order, error)
	FindForSeller(ctx context.Context, id, sellerID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*Page, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*Page, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) error
	MarkPaid(ctx context.Context, id uuid.UUID, update PaymentUpdate) error
	CancelUnpaid(ctx context.Context, id uuid.UUID) error
	ListExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Preload("Items", itemOrder).Where("id = ?", id))
}

func (r *repository) FindForBuyer(ctx context.Context, id, buyerID uuid.UUID) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Where("id = ? AND buyer_id = ?", id, buyerID))
}

// FindForSeller loads an order containing at least one of the seller's items.
// Only that seller's items are preloaded.
func (r *repository) FindForSeller(ctx context.Context, id, sellerID uuid.UUID) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return itemOrder(db.Where("seller_id = ?", sellerID))
		}).
		Where("id = ?", id).
		Where("id IN (?)", sellerOrderIDs(r.db, sellerID)))
}

func (r *repository) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*Page, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Where("buyer_id = ?", buyerID)
	return r.page(query, params)
}

func (r *repository) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*Page, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return itemOrder(db.Where("seller_id = ?", sellerID))
		}).
		Where("id IN (?)", sellerOrderIDs(r.db, sellerID))
	return r.page(query, params)
}

// UpdateStatus moves the order from one status to another only when it is
// still in the expected status.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleOrder
	}
	return nil
}

// MarkPaid records a payment unless the order is already paid or cancelled.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, update PaymentUpdate) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_paid = ? AND status <> ?", id, false, enums.OrderStatusCancelled).
		Updates(map[string]any{
			"is_paid":           true,
			"paid_at":           update.PaidAt,
			"payment_method":    update.Method,
			"payment_reference": update.Reference,
			"payment_phone":     update.Phone,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleOrder
	}
	return nil
}

// CancelUnpaid cancels the order only while it is still pending and unpaid.
// A payment recorded after the order was read reports ErrStaleOrder.
func (r *repository) CancelUnpaid(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND is_paid = ?", id, enums.OrderStatusPending, false).
		Update("status", enums.OrderStatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleOrder
	}
	return nil
}

// ListExpiredUnpaid returns pending unpaid orders created before cutoff,
// oldest first.
func (r *repository) ListExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Where("status = ? AND is_paid = ? AND created_at < ?", enums.OrderStatusPending, false, cutoff).
		Order("created_at ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := query.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) page(query *gorm.DB, params pagination.Params) (*Page, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := &Page{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func sellerOrderIDs(db *gorm.DB, sellerID uuid.UUID) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.OrderItem{}).
		Select("order_id").
		Where("seller_id = ?", sellerID)
}

func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
