package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
)

// Repository defines the booking persistence surface the matching engine and
// provider views depend on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Booking, error)
	FindByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Booking, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("booking_date DESC, created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) FindByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Booking, error) {
	var list []models.Booking
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("booking_date ASC, start_time ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
