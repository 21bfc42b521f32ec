package providers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
)

// Repository handles provider profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to provider profile operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new provider profile row.
func (r *Repository) Create(ctx context.Context, profile *models.ProviderProfile) (*models.ProviderProfile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByID loads a provider profile by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProviderProfile, error) {
	var profile models.ProviderProfile
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserID resolves the provider profile owned by the given user, or nil
// when the user has no provider profile. Absence is not an error here; the
// group booking queries treat "no profile" as an empty result set.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	var profile models.ProviderProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
