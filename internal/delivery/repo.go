package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylebazaar/stylebazaar-backend/pkg/db/models"
)

// ErrOptionUnavailable is returned for unknown or inactive delivery options.
var ErrOptionUnavailable = errors.New("delivery option unavailable")

// Repository reads the delivery option catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, option *models.DeliveryOption) error
	ListActive(ctx context.Context) ([]models.DeliveryOption, error)
	FindActive(ctx context.Context, id uuid.UUID) (*models.DeliveryOption, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery option repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, option *models.DeliveryOption) error {
	return r.db.WithContext(ctx).Create(option).Error
}

func (r *repository) ListActive(ctx context.Context) ([]models.DeliveryOption, error) {
	var options []models.DeliveryOption
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC").
		Order("name ASC").
		Find(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}

// FindActive returns the option only while it is offered to buyers.
func (r *repository) FindActive(ctx context.Context, id uuid.UUID) (*models.DeliveryOption, error) {
	var option models.DeliveryOption
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOptionUnavailable
		}
		return nil, err
	}
	return &option, nil
}
