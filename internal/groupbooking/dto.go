package groupbooking

import (
	"time"

	"github.com/google/uuid"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
)

// CreateInput captures everything needed to open a request, including the
// creator's own participation details (every request starts with one
// participant).
type CreateInput struct {
	CreatorID       uuid.UUID `validate:"required"`
	ServiceType     string    `validate:"required"`
	LocationName    string    `validate:"required"`
	Address         string    `validate:"required"`
	Latitude        *float64
	Longitude       *float64
	DateFrom        time.Time `validate:"required"`
	DateTo          time.Time `validate:"required,gtefield=DateFrom"`
	Notes           *string
	MaxParticipants int `validate:"omitempty,min=1"`
	JoinDeadline    *time.Time

	NumberOfHorses int `validate:"omitempty,min=1"`
	HorseID        *uuid.UUID
	HorseName      *string
	HorseInfo      *string
	CreatorNotes   *string
}

// JoinInput captures a customer joining a request via its invite code.
type JoinInput struct {
	InviteCode     string    `validate:"required"`
	UserID         uuid.UUID `validate:"required"`
	NumberOfHorses int       `validate:"omitempty,min=1"`
	HorseID        *uuid.UUID
	HorseName      *string
	HorseInfo      *string
	Notes          *string
}

// UpdateInput is the creator-only partial update. Nil fields are untouched.
// The only status change this path accepts is cancellation, and a status
// change must arrive alone: combining it with other fields is rejected.
type UpdateInput struct {
	Notes           *string
	MaxParticipants *int `validate:"omitempty,min=1"`
	JoinDeadline    *time.Time
	Status          *enums.GroupBookingStatus
}

// InviteView is the join-flow projection: the request plus the live count
// callers must check against MaxParticipants before joining.
type InviteView struct {
	Request            models.GroupBookingRequest `json:"request"`
	ActiveParticipants int64                      `json:"active_participants"`
}

// RequestList wraps the paginated requests plus the next page cursor.
type RequestList struct {
	Requests   []models.GroupBookingRequest `json:"requests"`
	NextCursor string                       `json:"next_cursor,omitempty"`
}

// ProviderFeed is what an authenticated provider sees: their own profile and
// the upcoming open requests. The profile carries the service-area data the
// caller filters with; the list itself is unfiltered.
type ProviderFeed struct {
	Profile  *models.ProviderProfile      `json:"profile,omitempty"`
	Requests []models.GroupBookingRequest `json:"requests"`
}

// MatchParticipant carries the identity a booking draft is built from.
type MatchParticipant struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	NumberOfHorses int
	HorseID        *uuid.UUID
	HorseName      *string
	HorseInfo      *string
	Notes          *string
}

// MatchProjection is the minimal view the matching engine operates on.
type MatchProjection struct {
	RequestID    uuid.UUID
	ServiceType  string
	DateFrom     time.Time
	DateTo       time.Time
	Participants []MatchParticipant
}

// BookingDraft describes one booking the matching engine should create.
type BookingDraft struct {
	CustomerID    uuid.UUID `validate:"required"`
	ServiceID     uuid.UUID `validate:"required"`
	BookingDate   time.Time `validate:"required"`
	StartTime     string    `validate:"required"`
	EndTime       string    `validate:"required"`
	HorseID       *uuid.UUID
	HorseName     *string
	HorseInfo     *string
	CustomerNotes *string
}

func (d BookingDraft) toModel(providerID uuid.UUID) *models.Booking {
	return &models.Booking{
		CustomerID:    d.CustomerID,
		ProviderID:    providerID,
		ServiceID:     d.ServiceID,
		BookingDate:   d.BookingDate,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Status:        enums.BookingStatusConfirmed,
		HorseID:       d.HorseID,
		HorseName:     d.HorseName,
		HorseInfo:     d.HorseInfo,
		CustomerNotes: d.CustomerNotes,
	}
}

// ParticipantLink maps a draft (by zero-based index) back to the participant
// it serves.
type ParticipantLink struct {
	ParticipantID uuid.UUID `validate:"required"`
	BookingIndex  int       `validate:"min=0"`
}

// MatchInput is the full matching request: one draft per surviving joined
// participant plus the index-based linking table.
type MatchInput struct {
	RequestID  uuid.UUID `validate:"required"`
	ProviderID uuid.UUID `validate:"required"`
	Drafts     []BookingDraft
	Links      []ParticipantLink
}

// MatchError records one failed draft. Position is 1-based.
type MatchError struct {
	Position int    `json:"position"`
	Message  string `json:"message"`
}

// MatchResult is a partial-success outcome: a non-empty Errors list can
// coexist with a non-empty BookingIDs list. Callers decide the user-facing
// message from both ("3 of 4 participants booked").
type MatchResult struct {
	BookingIDs []uuid.UUID  `json:"booking_ids"`
	Errors     []MatchError `json:"errors"`
}

// Booked reports how many bookings were created.
func (r *MatchResult) Booked() int {
	if r == nil {
		return 0
	}
	return len(r.BookingIDs)
}
