package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablemate-app/stablemate-backend/pkg/enums"
)

// Booking is one confirmed visit between a customer and a provider. The group
// matching engine creates these; their own lifecycle lives elsewhere.
type Booking struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	ProviderID    uuid.UUID           `gorm:"column:provider_id;type:uuid;not null"`
	ServiceID     uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	BookingDate   time.Time           `gorm:"column:booking_date;not null"`
	StartTime     string              `gorm:"column:start_time;not null"`
	EndTime       string              `gorm:"column:end_time;not null"`
	Status        enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'pending'"`
	HorseID       *uuid.UUID          `gorm:"column:horse_id;type:uuid"`
	HorseName     *string             `gorm:"column:horse_name"`
	HorseInfo     *string             `gorm:"column:horse_info"`
	CustomerNotes *string             `gorm:"column:customer_notes"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
