package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablemate-app/stablemate-backend/pkg/enums"
)

// GroupBookingRequest is a customer-initiated invitation for multiple
// customers to share one provider visit. The request owns its participants;
// participant rows never exist without a parent request.
type GroupBookingRequest struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID       uuid.UUID                 `gorm:"column:creator_id;type:uuid;not null"`
	ServiceType     string                    `gorm:"column:service_type;not null"`
	ProviderID      *uuid.UUID                `gorm:"column:provider_id;type:uuid"`
	LocationName    string                    `gorm:"column:location_name;not null"`
	Address         string                    `gorm:"column:address;not null"`
	Latitude        *float64                  `gorm:"column:latitude"`
	Longitude       *float64                  `gorm:"column:longitude"`
	DateFrom        time.Time                 `gorm:"column:date_from;not null"`
	DateTo          time.Time                 `gorm:"column:date_to;not null"`
	Notes           *string                   `gorm:"column:notes"`
	MaxParticipants int                       `gorm:"column:max_participants;not null"`
	Status          enums.GroupBookingStatus  `gorm:"column:status;type:group_booking_status;not null;default:'open'"`
	InviteCode      string                    `gorm:"column:invite_code;not null;uniqueIndex:uq_group_booking_invite_code"`
	JoinDeadline    *time.Time                `gorm:"column:join_deadline"`
	Participants    []GroupBookingParticipant `gorm:"foreignKey:GroupBookingRequestID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
