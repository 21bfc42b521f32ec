package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablemate-app/stablemate-backend/pkg/enums"
)

// Notification is a per-user activity record. Rows are append-only; reading
// one only sets read_at.
type Notification struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Kind                  enums.NotificationKind `gorm:"column:kind;not null"`
	GroupBookingRequestID *uuid.UUID             `gorm:"column:group_booking_request_id;type:uuid"`
	Message               string                 `gorm:"column:message;not null"`
	ReadAt                *time.Time             `gorm:"column:read_at"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
}
