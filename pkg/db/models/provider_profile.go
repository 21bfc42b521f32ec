package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/stablemate-app/stablemate-backend/pkg/db/types"
)

// ProviderProfile holds the provider-facing identity of a user plus the
// service-area data callers use to filter open group requests client-side.
type ProviderProfile struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_provider_profile_user"`
	BusinessName       string              `gorm:"column:business_name;not null"`
	Latitude           float64             `gorm:"column:latitude;not null"`
	Longitude          float64             `gorm:"column:longitude;not null"`
	ServiceAreaKm      int                 `gorm:"column:service_area_km;not null;default:50"`
	ActiveServiceNames dbtypes.StringArray `gorm:"column:active_service_names;type:text[]"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
