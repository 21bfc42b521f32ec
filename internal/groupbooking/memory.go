package groupbooking

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/internal/bookings"
	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	"github.com/stablemate-app/stablemate-backend/pkg/pagination"
)

// MemoryStore is an in-memory stand-in for the persistence layer. It mirrors
// the row-level semantics the SQL schema enforces, including the one-active-
// row-per-user constraint and the access filters, so service behavior can be
// exercised without a database. Missing and inaccessible rows both surface
// gorm.ErrRecordNotFound, exactly like the GORM repositories.
type MemoryStore struct {
	mu           sync.Mutex
	seq          int
	requests     map[uuid.UUID]*models.GroupBookingRequest
	participants map[uuid.UUID]*models.GroupBookingParticipant
	bookings     map[uuid.UUID]*models.Booking
	profiles     map[uuid.UUID]*models.ProviderProfile

	// BookingErr, when set, is consulted on every booking insert so tests can
	// simulate per-draft failures.
	BookingErr func(b *models.Booking) error
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:     map[uuid.UUID]*models.GroupBookingRequest{},
		participants: map[uuid.UUID]*models.GroupBookingParticipant{},
		bookings:     map[uuid.UUID]*models.Booking{},
		profiles:     map[uuid.UUID]*models.ProviderProfile{},
	}
}

var memoryEpoch = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

// tick returns a strictly increasing timestamp so insertion order is
// recoverable from created_at/joined_at alone.
func (m *MemoryStore) tick() time.Time {
	m.seq++
	return memoryEpoch.Add(time.Duration(m.seq) * time.Second)
}

// WithTx satisfies the service's transaction runner. There is nothing to roll
// back in memory; fn runs with a nil handle, which the repositories treat as
// "stay on the current connection".
func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// Requests exposes the store as a group booking repository.
func (m *MemoryStore) Requests() Repository {
	return &memoryRequests{s: m}
}

// Bookings exposes the store as a bookings repository.
func (m *MemoryStore) Bookings() bookings.Repository {
	return &memoryBookings{s: m}
}

// SeedProfile inserts a provider profile, assigning an id when absent.
func (m *MemoryStore) SeedProfile(profile *models.ProviderProfile) *models.ProviderProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	m.profiles[profile.ID] = profile
	return profile
}

// FindByUserID resolves the profile owned by the user, nil when none exists.
func (m *MemoryStore) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.UserID == userID {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

// FindByID resolves a profile by id.
func (m *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ProviderProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// Participant returns a copy of the stored participant row, for assertions.
func (m *MemoryStore) Participant(id uuid.UUID) (*models.GroupBookingParticipant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, false
	}
	out := *p
	return &out, true
}

// Request returns a copy of the stored request row, for assertions.
func (m *MemoryStore) Request(id uuid.UUID) (*models.GroupBookingRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, false
	}
	out := *r
	return &out, true
}

func (m *MemoryStore) hasActiveParticipant(requestID, userID uuid.UUID) bool {
	for _, p := range m.participants {
		if p.GroupBookingRequestID == requestID && p.UserID == userID &&
			p.Status != enums.ParticipantStatusCancelled {
			return true
		}
	}
	return false
}

func (m *MemoryStore) ownsProfile(userID uuid.UUID, profileID uuid.UUID) bool {
	p, ok := m.profiles[profileID]
	return ok && p.UserID == userID
}

func (m *MemoryStore) canSee(r *models.GroupBookingRequest, userID uuid.UUID, userType enums.UserType) bool {
	if r.CreatorID == userID {
		return true
	}
	if m.hasActiveParticipant(r.ID, userID) {
		return true
	}
	if r.ProviderID != nil && m.ownsProfile(userID, *r.ProviderID) {
		return true
	}
	if userType == enums.UserTypeProvider && r.Status == enums.GroupBookingStatusOpen {
		return true
	}
	return false
}

func (m *MemoryStore) participantsOf(requestID uuid.UUID) []models.GroupBookingParticipant {
	var out []models.GroupBookingParticipant
	for _, p := range m.participants {
		if p.GroupBookingRequestID == requestID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

type memoryRequests struct {
	s *MemoryStore
}

func (r *memoryRequests) WithTx(tx *gorm.DB) Repository {
	return r
}

func (r *memoryRequests) Create(ctx context.Context, request *models.GroupBookingRequest) (*models.GroupBookingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.requests {
		if existing.InviteCode == request.InviteCode {
			return nil, fmt.Errorf(`duplicate key value violates unique constraint "uq_group_booking_invite_code"`)
		}
	}

	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	now := r.s.tick()
	request.CreatedAt = now
	request.UpdatedAt = now

	for i := range request.Participants {
		p := &request.Participants[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.GroupBookingRequestID = request.ID
		p.JoinedAt = r.s.tick()
		p.UpdatedAt = p.JoinedAt
		stored := *p
		r.s.participants[p.ID] = &stored
	}

	stored := *request
	stored.Participants = nil
	r.s.requests[request.ID] = &stored

	out := *request
	return &out, nil
}

func (r *memoryRequests) FindByIDWithAccess(ctx context.Context, id, userID uuid.UUID, userType enums.UserType) (*models.GroupBookingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || !r.s.canSee(request, userID, userType) {
		return nil, gorm.ErrRecordNotFound
	}
	out := *request
	out.Participants = r.s.participantsOf(id)
	return &out, nil
}

func (r *memoryRequests) FindByUserID(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.GroupBookingRequest, *pagination.Cursor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []models.GroupBookingRequest
	for _, request := range r.s.requests {
		if request.CreatorID != userID && !r.s.hasActiveParticipant(request.ID, userID) {
			continue
		}
		if params.Cursor != nil && !beforeCursor(request, params.Cursor) {
			continue
		}
		matched = append(matched, *request)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return bytes.Compare(matched[i].ID[:], matched[j].ID[:]) > 0
	})

	normalized := pagination.NormalizeLimit(params.Limit)
	if len(matched) > normalized {
		matched = matched[:normalized]
		last := matched[len(matched)-1]
		return matched, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return matched, nil, nil
}

func beforeCursor(request *models.GroupBookingRequest, cursor *pagination.Cursor) bool {
	if request.CreatedAt.Before(cursor.CreatedAt) {
		return true
	}
	if request.CreatedAt.Equal(cursor.CreatedAt) {
		return bytes.Compare(request.ID[:], cursor.ID[:]) < 0
	}
	return false
}

func (r *memoryRequests) FindOpenUpcoming(ctx context.Context, from time.Time) ([]models.GroupBookingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.GroupBookingRequest
	for _, request := range r.s.requests {
		if request.Status == enums.GroupBookingStatusOpen && !request.DateFrom.Before(from) {
			out = append(out, *request)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateFrom.Before(out[j].DateFrom)
	})
	return out, nil
}

func (r *memoryRequests) FindByInviteCode(ctx context.Context, code string) (*InviteView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, request := range r.s.requests {
		if request.InviteCode != code {
			continue
		}
		view := &InviteView{Request: *request}
		for _, p := range r.s.participants {
			if p.GroupBookingRequestID == request.ID && p.Status != enums.ParticipantStatusCancelled {
				view.ActiveParticipants++
			}
		}
		return view, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryRequests) FindForMatch(ctx context.Context, id uuid.UUID) (*MatchProjection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || request.Status != enums.GroupBookingStatusOpen {
		return nil, gorm.ErrRecordNotFound
	}

	projection := &MatchProjection{
		RequestID:   request.ID,
		ServiceType: request.ServiceType,
		DateFrom:    request.DateFrom,
		DateTo:      request.DateTo,
	}
	for _, p := range r.s.participantsOf(id) {
		if p.Status != enums.ParticipantStatusJoined {
			continue
		}
		projection.Participants = append(projection.Participants, MatchParticipant{
			ID:             p.ID,
			UserID:         p.UserID,
			NumberOfHorses: p.NumberOfHorses,
			HorseID:        p.HorseID,
			HorseName:      p.HorseName,
			HorseInfo:      p.HorseInfo,
			Notes:          p.Notes,
		})
	}
	return projection, nil
}

func (r *memoryRequests) IsUserParticipant(ctx context.Context, requestID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.hasActiveParticipant(requestID, userID), nil
}

func (r *memoryRequests) FindByIDForCreator(ctx context.Context, id, creatorID uuid.UUID) (*models.GroupBookingRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || request.CreatorID != creatorID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *request
	return &out, nil
}

func (r *memoryRequests) FindParticipantWithAccess(ctx context.Context, participantID, requestID, userID uuid.UUID) (*models.GroupBookingParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	participant, ok := r.s.participants[participantID]
	if !ok || participant.GroupBookingRequestID != requestID {
		return nil, gorm.ErrRecordNotFound
	}
	if participant.UserID != userID {
		request, found := r.s.requests[requestID]
		if !found || request.CreatorID != userID {
			return nil, gorm.ErrRecordNotFound
		}
	}
	out := *participant
	return &out, nil
}

func (r *memoryRequests) CountActiveParticipants(ctx context.Context, requestID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, p := range r.s.participants {
		if p.GroupBookingRequestID == requestID && p.Status != enums.ParticipantStatusCancelled {
			count++
		}
	}
	return count, nil
}

func (r *memoryRequests) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok {
		return nil
	}
	for key, value := range updates {
		switch key {
		case "notes":
			if v, isStr := value.(string); isStr {
				request.Notes = &v
			}
		case "join_deadline":
			if v, isTime := value.(time.Time); isTime {
				request.JoinDeadline = &v
			}
		case "max_participants":
			if v, isInt := value.(int); isInt {
				request.MaxParticipants = v
			}
		}
	}
	request.UpdatedAt = r.s.tick()
	return nil
}

func (r *memoryRequests) AddParticipant(ctx context.Context, participant *models.GroupBookingParticipant) (*models.GroupBookingParticipant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.hasActiveParticipant(participant.GroupBookingRequestID, participant.UserID) {
		return nil, fmt.Errorf(`duplicate key value violates unique constraint "uq_group_participant_active"`)
	}

	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	participant.JoinedAt = r.s.tick()
	participant.UpdatedAt = participant.JoinedAt

	stored := *participant
	r.s.participants[participant.ID] = &stored

	out := *participant
	return &out, nil
}

func (r *memoryRequests) CancelParticipant(ctx context.Context, participantID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	participant, ok := r.s.participants[participantID]
	if !ok || participant.Status != enums.ParticipantStatusJoined {
		return false, nil
	}
	participant.Status = enums.ParticipantStatusCancelled
	participant.UpdatedAt = r.s.tick()
	return true, nil
}

func (r *memoryRequests) CancelRequest(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || request.Status != enums.GroupBookingStatusOpen {
		return false, nil
	}
	request.Status = enums.GroupBookingStatusCancelled
	request.UpdatedAt = r.s.tick()
	return true, nil
}

func (r *memoryRequests) LinkParticipantBooking(ctx context.Context, participantID, bookingID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	participant, ok := r.s.participants[participantID]
	if !ok || participant.Status != enums.ParticipantStatusJoined {
		return fmt.Errorf("participant %s is not in joined state", participantID)
	}
	id := bookingID
	participant.BookingID = &id
	participant.Status = enums.ParticipantStatusBooked
	participant.UpdatedAt = r.s.tick()
	return nil
}

func (r *memoryRequests) MarkMatched(ctx context.Context, id, providerID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || request.Status != enums.GroupBookingStatusOpen {
		return false, nil
	}
	pid := providerID
	request.Status = enums.GroupBookingStatusMatched
	request.ProviderID = &pid
	request.UpdatedAt = r.s.tick()
	return true, nil
}

type memoryBookings struct {
	s *MemoryStore
}

func (b *memoryBookings) WithTx(tx *gorm.DB) bookings.Repository {
	return b
}

func (b *memoryBookings) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if b.s.BookingErr != nil {
		if err := b.s.BookingErr(booking); err != nil {
			return nil, err
		}
	}

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := b.s.tick()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	stored := *booking
	b.s.bookings[booking.ID] = &stored

	out := *booking
	return &out, nil
}

func (b *memoryBookings) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	booking, ok := b.s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *booking
	return &out, nil
}

func (b *memoryBookings) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var out []models.Booking
	for _, booking := range b.s.bookings {
		if booking.CustomerID == customerID {
			out = append(out, *booking)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (b *memoryBookings) FindByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var out []models.Booking
	for _, booking := range b.s.bookings {
		if booking.ProviderID == providerID {
			out = append(out, *booking)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
