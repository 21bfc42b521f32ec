package groupbooking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	pkgerrors "github.com/stablemate-app/stablemate-backend/pkg/errors"
)

type matchFixture struct {
	svc          Service
	store        *MemoryStore
	notifier     *fakeNotifier
	request      *models.GroupBookingRequest
	participants []models.GroupBookingParticipant
	profile      *models.ProviderProfile
}

// newMatchFixture builds an open request with the creator plus two joined
// members and a provider profile ready to match against.
func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()

	svc, store, notifier := newTestService(t)
	ctx := context.Background()
	creator := uuid.New()

	request, err := svc.Create(ctx, validCreateInput(creator))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, joinErr := svc.Join(ctx, JoinInput{InviteCode: request.InviteCode, UserID: uuid.New()})
		require.NoError(t, joinErr)
	}

	full, err := svc.Get(ctx, request.ID, creator, enums.UserTypeCustomer)
	require.NoError(t, err)
	require.Len(t, full.Participants, 3)

	profile := store.SeedProfile(&models.ProviderProfile{
		UserID:       uuid.New(),
		BusinessName: "Hoofworks",
	})

	return &matchFixture{
		svc:          svc,
		store:        store,
		notifier:     notifier,
		request:      full,
		participants: full.Participants,
		profile:      profile,
	}
}

func (f *matchFixture) draftFor(p models.GroupBookingParticipant) BookingDraft {
	return BookingDraft{
		CustomerID:  p.UserID,
		ServiceID:   uuid.New(),
		BookingDate: f.request.DateFrom,
		StartTime:   "09:00",
		EndTime:     "10:00",
	}
}

func (f *matchFixture) matchInput() MatchInput {
	input := MatchInput{
		RequestID:  f.request.ID,
		ProviderID: f.profile.ID,
	}
	for i, p := range f.participants {
		input.Drafts = append(input.Drafts, f.draftFor(p))
		input.Links = append(input.Links, ParticipantLink{ParticipantID: p.ID, BookingIndex: i})
	}
	return input
}

func TestMatch_AllDraftsSucceed(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	result, err := f.svc.Match(ctx, f.matchInput())
	require.NoError(t, err)
	assert.Len(t, result.BookingIDs, 3)
	assert.Empty(t, result.Errors)

	request, ok := f.store.Request(f.request.ID)
	require.True(t, ok)
	assert.Equal(t, enums.GroupBookingStatusMatched, request.Status)
	require.NotNil(t, request.ProviderID)
	assert.Equal(t, f.profile.ID, *request.ProviderID)

	for _, p := range f.participants {
		stored, found := f.store.Participant(p.ID)
		require.True(t, found)
		assert.Equal(t, enums.ParticipantStatusBooked, stored.Status)
		require.NotNil(t, stored.BookingID)
	}

	notices := f.notifier.byKind(enums.NotificationKindGroupMatched)
	assert.Len(t, notices, 3)
}

func TestMatch_PartialFailureStillMatches(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	failing := f.participants[1]
	f.store.BookingErr = func(b *models.Booking) error {
		if b.CustomerID == failing.UserID {
			return errors.New("provider schedule conflict")
		}
		return nil
	}

	result, err := f.svc.Match(ctx, f.matchInput())
	require.NoError(t, err)
	assert.Len(t, result.BookingIDs, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Position, "positions are 1-based")
	assert.Contains(t, result.Errors[0].Message, "schedule conflict")

	request, ok := f.store.Request(f.request.ID)
	require.True(t, ok)
	assert.Equal(t, enums.GroupBookingStatusMatched, request.Status,
		"one booking is enough to flip the request")

	stored, found := f.store.Participant(failing.ID)
	require.True(t, found)
	assert.Equal(t, enums.ParticipantStatusJoined, stored.Status,
		"failed participant keeps their joined state")
	assert.Nil(t, stored.BookingID)
}

func TestMatch_AllDraftsFailLeavesRequestOpen(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	f.store.BookingErr = func(b *models.Booking) error {
		return errors.New("provider fully booked")
	}

	result, err := f.svc.Match(ctx, f.matchInput())
	require.NoError(t, err)
	assert.Empty(t, result.BookingIDs)
	assert.Len(t, result.Errors, 3)

	request, ok := f.store.Request(f.request.ID)
	require.True(t, ok)
	assert.Equal(t, enums.GroupBookingStatusOpen, request.Status,
		"a run with zero bookings must not consume the request")

	retry := f.matchInput()
	f.store.BookingErr = nil
	result, err = f.svc.Match(ctx, retry)
	require.NoError(t, err)
	assert.Len(t, result.BookingIDs, 3)
}

func TestMatch_InvalidDraftIsReportedNotFatal(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	input := f.matchInput()
	input.Drafts[0].ServiceID = uuid.Nil

	result, err := f.svc.Match(ctx, input)
	require.NoError(t, err)
	assert.Len(t, result.BookingIDs, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Position)
}

func TestMatch_LinkValidation(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	t.Run("missing link for a draft", func(t *testing.T) {
		input := f.matchInput()
		input.Links = input.Links[:len(input.Links)-1]
		_, err := f.svc.Match(ctx, input)
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("unknown participant", func(t *testing.T) {
		input := f.matchInput()
		input.Links[0].ParticipantID = uuid.New()
		_, err := f.svc.Match(ctx, input)
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("duplicate booking index", func(t *testing.T) {
		input := f.matchInput()
		input.Links[1].BookingIndex = 0
		_, err := f.svc.Match(ctx, input)
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("participant linked twice", func(t *testing.T) {
		input := f.matchInput()
		input.Links[1].ParticipantID = input.Links[0].ParticipantID
		_, err := f.svc.Match(ctx, input)
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("index out of range", func(t *testing.T) {
		input := f.matchInput()
		input.Links[0].BookingIndex = 99
		_, err := f.svc.Match(ctx, input)
		assertCode(t, err, pkgerrors.CodeValidation)
	})
}

func TestMatch_RequestMustBeOpen(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	input := f.matchInput()
	_, err := f.svc.Match(ctx, input)
	require.NoError(t, err)

	// Second run against the now matched request.
	_, err = f.svc.Match(ctx, input)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestMatch_UnknownProvider(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	input := f.matchInput()
	input.ProviderID = uuid.New()
	_, err := f.svc.Match(ctx, input)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestMatch_CancelledParticipantIsExcluded(t *testing.T) {
	f := newMatchFixture(t)
	ctx := context.Background()

	leaver := f.participants[2]
	require.NoError(t, f.svc.CancelParticipant(ctx, f.request.ID, leaver.ID, leaver.UserID))

	// A link that still references the cancelled participant must be rejected.
	_, err := f.svc.Match(ctx, f.matchInput())
	assertCode(t, err, pkgerrors.CodeValidation)

	input := MatchInput{
		RequestID:  f.request.ID,
		ProviderID: f.profile.ID,
	}
	for i, p := range f.participants[:2] {
		input.Drafts = append(input.Drafts, f.draftFor(p))
		input.Links = append(input.Links, ParticipantLink{ParticipantID: p.ID, BookingIndex: i})
	}

	result, err := f.svc.Match(ctx, input)
	require.NoError(t, err)
	assert.Len(t, result.BookingIDs, 2)

	stored, found := f.store.Participant(leaver.ID)
	require.True(t, found)
	assert.Equal(t, enums.ParticipantStatusCancelled, stored.Status)
	assert.Nil(t, stored.BookingID)
}
