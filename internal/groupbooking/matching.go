package groupbooking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	pkgerrors "github.com/stablemate-app/stablemate-backend/pkg/errors"
)

// Match converts an open group booking request into individual bookings, one
// per draft, inside a single transaction. Draft failures are isolated with
// savepoints: a bad draft is skipped and reported in the result while the
// surviving drafts commit. The request flips to matched only when at least
// one booking was created; with zero bookings it stays open and the caller
// gets the per-draft errors.
func (s *service) Match(ctx context.Context, input MatchInput) (*MatchResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid match request").
			WithDetails(validationDetails(err))
	}
	if len(input.Drafts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one booking draft is required")
	}

	if _, err := s.providers.FindByID(ctx, input.ProviderID); err != nil {
		return nil, mapLookupErr(err, "provider profile not found")
	}

	projection, err := s.repo.FindForMatch(ctx, input.RequestID)
	if err != nil {
		return nil, mapLookupErr(err, "no open group booking request found")
	}

	participantByLink, err := resolveLinks(projection, input)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{}
	bookedUsers := make([]uuid.UUID, 0, len(input.Drafts))

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bookingRepo := s.bookings.WithTx(tx)
		groupRepo := s.repo.WithTx(tx)

		for i, draft := range input.Drafts {
			pos := i + 1

			if vErr := s.validate.Struct(draft); vErr != nil {
				result.Errors = append(result.Errors, MatchError{
					Position: pos,
					Message:  fmt.Sprintf("draft %d: %v", pos, vErr),
				})
				continue
			}

			// A savepoint per draft keeps one failed insert from aborting the
			// whole transaction on Postgres.
			sp := fmt.Sprintf("draft_%d", pos)
			if tx != nil {
				tx.SavePoint(sp)
			}

			booking, createErr := bookingRepo.Create(ctx, draft.toModel(input.ProviderID))
			if createErr != nil {
				if tx != nil {
					tx.RollbackTo(sp)
				}
				result.Errors = append(result.Errors, MatchError{
					Position: pos,
					Message:  fmt.Sprintf("draft %d: %v", pos, createErr),
				})
				continue
			}

			participant := participantByLink[i]
			if linkErr := groupRepo.LinkParticipantBooking(ctx, participant.ID, booking.ID); linkErr != nil {
				if tx != nil {
					tx.RollbackTo(sp)
				}
				result.Errors = append(result.Errors, MatchError{
					Position: pos,
					Message:  fmt.Sprintf("draft %d: %v", pos, linkErr),
				})
				continue
			}

			result.BookingIDs = append(result.BookingIDs, booking.ID)
			bookedUsers = append(bookedUsers, participant.UserID)
		}

		if len(result.BookingIDs) == 0 {
			// Nothing to commit; the request stays open for another attempt.
			return nil
		}

		matched, markErr := groupRepo.MarkMatched(ctx, input.RequestID, input.ProviderID)
		if markErr != nil {
			return markErr
		}
		if !matched {
			return errRequestNoLongerOpen
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRequestNoLongerOpen) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "group booking request is no longer open")
		}
		return nil, s.wrapInternal(ctx, err, "matching group booking request")
	}

	s.metrics.ObserveRun(result.Booked(), len(result.Errors))

	ctx = s.logg.WithGroupRequestID(ctx, input.RequestID.String())
	ctx = s.logg.WithProviderID(ctx, input.ProviderID.String())
	if result.Booked() == 0 {
		s.logg.Warn(ctx, "match run created no bookings, request left open")
		return result, nil
	}
	s.logg.Info(ctx, fmt.Sprintf("match run booked %d of %d participants",
		result.Booked(), len(input.Drafts)))

	for _, userID := range bookedUsers {
		s.notify(ctx, userID, enums.NotificationKindGroupMatched, input.RequestID,
			"Your group booking request was matched with a provider")
	}
	return result, nil
}

var errRequestNoLongerOpen = errors.New("group booking request no longer open")

// resolveLinks validates the draft-to-participant mapping: every draft links
// exactly one currently joined participant, no participant or draft is used
// twice.
func resolveLinks(projection *MatchProjection, input MatchInput) (map[int]MatchParticipant, error) {
	if len(input.Links) != len(input.Drafts) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "every booking draft needs exactly one participant link")
	}

	joined := make(map[uuid.UUID]MatchParticipant, len(projection.Participants))
	for _, p := range projection.Participants {
		joined[p.ID] = p
	}

	byIndex := make(map[int]MatchParticipant, len(input.Links))
	seen := make(map[uuid.UUID]bool, len(input.Links))
	for _, link := range input.Links {
		if link.BookingIndex < 0 || link.BookingIndex >= len(input.Drafts) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("booking index %d is out of range", link.BookingIndex))
		}
		if _, taken := byIndex[link.BookingIndex]; taken {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("booking index %d is linked twice", link.BookingIndex))
		}
		participant, ok := joined[link.ParticipantID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("participant %s is not a joined participant of this request", link.ParticipantID))
		}
		if seen[link.ParticipantID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("participant %s is linked twice", link.ParticipantID))
		}
		seen[link.ParticipantID] = true
		byIndex[link.BookingIndex] = participant
	}
	return byIndex, nil
}
