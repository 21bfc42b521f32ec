package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablemate-app/stablemate-backend/pkg/enums"
)

// GroupBookingParticipant records one customer's membership in a group booking
// request. At most one non-cancelled row may exist per (request, user) pair;
// the partial unique index in the schema enforces that under concurrency.
// Cancellation is a soft status change so booking history survives.
type GroupBookingParticipant struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupBookingRequestID uuid.UUID               `gorm:"column:group_booking_request_id;type:uuid;not null"`
	UserID                uuid.UUID               `gorm:"column:user_id;type:uuid;not null"`
	NumberOfHorses        int                     `gorm:"column:number_of_horses;not null;default:1"`
	HorseID               *uuid.UUID              `gorm:"column:horse_id;type:uuid"`
	HorseName             *string                 `gorm:"column:horse_name"`
	HorseInfo             *string                 `gorm:"column:horse_info"`
	Notes                 *string                 `gorm:"column:notes"`
	Status                enums.ParticipantStatus `gorm:"column:status;type:participant_status;not null;default:'joined'"`
	BookingID             *uuid.UUID              `gorm:"column:booking_id;type:uuid"`
	JoinedAt              time.Time               `gorm:"column:joined_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
