package groupbooking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	"github.com/stablemate-app/stablemate-backend/pkg/pagination"
)

// Repository defines persistence operations for the group booking aggregate.
//
// Every read that takes a caller identity applies the access predicate inside
// the query filter itself. A row the caller may not see never leaves the
// storage boundary, and an inaccessible row is indistinguishable from a
// missing one (both surface gorm.ErrRecordNotFound).
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// Create inserts the request together with its creator participant as a
	// single write unit. The caller provides the transaction scope.
	Create(ctx context.Context, request *models.GroupBookingRequest) (*models.GroupBookingRequest, error)

	// FindByIDWithAccess loads a request the caller is allowed to see:
	// creator, active participant, owner of the matched provider profile, or
	// any provider while the request is still open.
	FindByIDWithAccess(ctx context.Context, id, userID uuid.UUID, userType enums.UserType) (*models.GroupBookingRequest, error)

	// FindByUserID lists requests where the user is creator or active
	// participant, newest first, cursor paginated.
	FindByUserID(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.GroupBookingRequest, *pagination.Cursor, error)

	// FindOpenUpcoming lists open requests whose window starts at or after
	// the given instant, soonest first. Service-area filtering is left to
	// the caller alongside the provider profile.
	FindOpenUpcoming(ctx context.Context, from time.Time) ([]models.GroupBookingRequest, error)

	// FindByInviteCode resolves a request by its invite code together with
	// the live active-participant count the join flow checks capacity against.
	FindByInviteCode(ctx context.Context, code string) (*InviteView, error)

	// FindForMatch returns the minimal projection the matching engine needs.
	// Only open requests resolve; only joined participants are included.
	FindForMatch(ctx context.Context, id uuid.UUID) (*MatchProjection, error)

	// IsUserParticipant reports whether the user holds a non-cancelled
	// participant row on the request.
	IsUserParticipant(ctx context.Context, requestID, userID uuid.UUID) (bool, error)

	// FindByIDForCreator is the strict creator-only lookup backing update and
	// cancel operations.
	FindByIDForCreator(ctx context.Context, id, creatorID uuid.UUID) (*models.GroupBookingRequest, error)

	// FindParticipantWithAccess loads a participant when the caller is the
	// participant themself or the request's creator.
	FindParticipantWithAccess(ctx context.Context, participantID, requestID, userID uuid.UUID) (*models.GroupBookingParticipant, error)

	CountActiveParticipants(ctx context.Context, requestID uuid.UUID) (int64, error)

	// Update applies a creator-authorized partial update. Authorization must
	// already have happened via FindByIDForCreator.
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error

	AddParticipant(ctx context.Context, participant *models.GroupBookingParticipant) (*models.GroupBookingParticipant, error)

	// CancelParticipant soft-cancels a joined participant. Returns false when
	// the row was not in the joined state.
	CancelParticipant(ctx context.Context, participantID uuid.UUID) (bool, error)

	// CancelRequest soft-cancels an open request. Returns false when the
	// request was not open.
	CancelRequest(ctx context.Context, id uuid.UUID) (bool, error)

	// LinkParticipantBooking flips a joined participant to booked and records
	// the booking id. Matching engine only.
	LinkParticipantBooking(ctx context.Context, participantID, bookingID uuid.UUID) error

	// MarkMatched assigns the provider and flips an open request to matched.
	// Returns false when the request was not open.
	MarkMatched(ctx context.Context, id, providerID uuid.UUID) (bool, error)
}

// ListParams carries the normalized pagination inputs for FindByUserID.
type ListParams struct {
	Limit  int
	Cursor *pagination.Cursor
}
