package groupbooking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/internal/bookings"
	"github.com/stablemate-app/stablemate-backend/pkg/config"
	"github.com/stablemate-app/stablemate-backend/pkg/db"
	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	pkgerrors "github.com/stablemate-app/stablemate-backend/pkg/errors"
	"github.com/stablemate-app/stablemate-backend/pkg/invitecode"
	"github.com/stablemate-app/stablemate-backend/pkg/logger"
	"github.com/stablemate-app/stablemate-backend/pkg/metrics"
	"github.com/stablemate-app/stablemate-backend/pkg/pagination"
)

// inviteCodeAttempts bounds retries when a freshly generated code collides
// with an existing one. With a 31-char alphabet at length 10 a single retry
// is already vanishingly rare.
const inviteCodeAttempts = 5

// Service is the group booking application surface. All authorization happens
// here and in the repository filters; callers pass the authenticated identity.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.GroupBookingRequest, error)
	Get(ctx context.Context, id, userID uuid.UUID, userType enums.UserType) (*models.GroupBookingRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RequestList, error)
	ListAvailableForProvider(ctx context.Context, userID uuid.UUID) (*ProviderFeed, error)
	GetByInviteCode(ctx context.Context, code string) (*InviteView, error)
	Join(ctx context.Context, input JoinInput) (*models.GroupBookingParticipant, error)
	Update(ctx context.Context, id, creatorID uuid.UUID, input UpdateInput) (*models.GroupBookingRequest, error)
	CancelRequest(ctx context.Context, id, creatorID uuid.UUID) error
	CancelParticipant(ctx context.Context, requestID, participantID, userID uuid.UUID) error
	Match(ctx context.Context, input MatchInput) (*MatchResult, error)
}

// txRunner is the slice of db.Client the service needs.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// providerResolver resolves provider profiles for the feed and for matching.
type providerResolver interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProviderProfile, error)
}

// Notifier records a notification for a user. Failures are logged, never
// propagated; notifications ride after the state change, not inside it.
type Notifier interface {
	Record(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, requestID uuid.UUID, message string) error
}

// ServiceParams wires the service dependencies.
type ServiceParams struct {
	Repo      Repository
	Bookings  bookings.Repository
	Tx        txRunner
	Providers providerResolver
	Notifier  Notifier
	Metrics   *metrics.MatchMetrics
	Logger    *logger.Logger
	Config    config.GroupBookingConfig
}

type service struct {
	repo      Repository
	bookings  bookings.Repository
	tx        txRunner
	providers providerResolver
	notifier  Notifier
	metrics   *metrics.MatchMetrics
	validate  *validator.Validate
	logg      *logger.Logger
	cfg       config.GroupBookingConfig
}

// NewService builds the group booking service. Notifier and Metrics are
// optional; everything else is required.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("group booking repository is required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("bookings repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Providers == nil {
		return nil, fmt.Errorf("provider resolver is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	cfg := params.Config
	if cfg.InviteCodeLength <= 0 {
		cfg.InviteCodeLength = invitecode.DefaultLength
	}
	if cfg.DefaultMaxMembers <= 0 {
		cfg.DefaultMaxMembers = 6
	}
	if cfg.AbsoluteMaxMembers <= 0 {
		cfg.AbsoluteMaxMembers = 20
	}

	return &service{
		repo:      params.Repo,
		bookings:  params.Bookings,
		tx:        params.Tx,
		providers: params.Providers,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		validate:  validator.New(),
		logg:      params.Logger,
		cfg:       cfg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.GroupBookingRequest, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group booking request").
			WithDetails(validationDetails(err))
	}

	maxParticipants := input.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = s.cfg.DefaultMaxMembers
	}
	if maxParticipants > s.cfg.AbsoluteMaxMembers {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("max participants cannot exceed %d", s.cfg.AbsoluteMaxMembers))
	}
	if input.JoinDeadline != nil && input.JoinDeadline.After(input.DateFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "join deadline must not be after the requested window start")
	}

	numberOfHorses := input.NumberOfHorses
	if numberOfHorses == 0 {
		numberOfHorses = 1
	}

	var created *models.GroupBookingRequest
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := invitecode.Generate(s.cfg.InviteCodeLength)
		if err != nil {
			return nil, s.wrapInternal(ctx, err, "generating invite code")
		}

		request := &models.GroupBookingRequest{
			CreatorID:       input.CreatorID,
			ServiceType:     input.ServiceType,
			LocationName:    input.LocationName,
			Address:         input.Address,
			Latitude:        input.Latitude,
			Longitude:       input.Longitude,
			DateFrom:        input.DateFrom,
			DateTo:          input.DateTo,
			Notes:           input.Notes,
			MaxParticipants: maxParticipants,
			Status:          enums.GroupBookingStatusOpen,
			InviteCode:      code,
			JoinDeadline:    input.JoinDeadline,
			Participants: []models.GroupBookingParticipant{
				{
					UserID:         input.CreatorID,
					NumberOfHorses: numberOfHorses,
					HorseID:        input.HorseID,
					HorseName:      input.HorseName,
					HorseInfo:      input.HorseInfo,
					Notes:          input.CreatorNotes,
					Status:         enums.ParticipantStatusJoined,
				},
			},
		}

		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			result, txErr := s.repo.WithTx(tx).Create(ctx, request)
			if txErr != nil {
				return txErr
			}
			created = result
			return nil
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, "uq_group_booking_invite_code") {
			created = nil
			continue
		}
		return nil, s.wrapInternal(ctx, err, "creating group booking request")
	}
	if created == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique invite code")
	}

	ctx = s.logg.WithGroupRequestID(ctx, created.ID.String())
	s.logg.Info(ctx, "group booking request created")
	return created, nil
}

func (s *service) Get(ctx context.Context, id, userID uuid.UUID, userType enums.UserType) (*models.GroupBookingRequest, error) {
	request, err := s.repo.FindByIDWithAccess(ctx, id, userID, userType)
	if err != nil {
		return nil, mapLookupErr(err, "group booking request not found")
	}
	return request, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RequestList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}

	requests, next, err := s.repo.FindByUserID(ctx, userID, ListParams{
		Limit:  params.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, s.wrapInternal(ctx, err, "listing group booking requests")
	}

	list := &RequestList{Requests: requests}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) ListAvailableForProvider(ctx context.Context, userID uuid.UUID) (*ProviderFeed, error) {
	profile, err := s.providers.FindByUserID(ctx, userID)
	if err != nil {
		return nil, s.wrapInternal(ctx, err, "resolving provider profile")
	}
	if profile == nil {
		return &ProviderFeed{Requests: []models.GroupBookingRequest{}}, nil
	}

	requests, err := s.repo.FindOpenUpcoming(ctx, time.Now().UTC())
	if err != nil {
		return nil, s.wrapInternal(ctx, err, "listing open group booking requests")
	}
	return &ProviderFeed{Profile: profile, Requests: requests}, nil
}

func (s *service) GetByInviteCode(ctx context.Context, code string) (*InviteView, error) {
	view, err := s.repo.FindByInviteCode(ctx, code)
	if err != nil {
		return nil, mapLookupErr(err, "invite code not found")
	}
	return view, nil
}

func (s *service) Join(ctx context.Context, input JoinInput) (*models.GroupBookingParticipant, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid join request").
			WithDetails(validationDetails(err))
	}

	view, err := s.repo.FindByInviteCode(ctx, input.InviteCode)
	if err != nil {
		return nil, mapLookupErr(err, "invite code not found")
	}
	request := view.Request

	if request.Status != enums.GroupBookingStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("group booking request is %s", request.Status))
	}
	if request.JoinDeadline != nil && time.Now().After(*request.JoinDeadline) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "join deadline has passed")
	}

	already, err := s.repo.IsUserParticipant(ctx, request.ID, input.UserID)
	if err != nil {
		return nil, s.wrapInternal(ctx, err, "checking participation")
	}
	if already {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already participates in this group booking")
	}
	if view.ActiveParticipants >= int64(request.MaxParticipants) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "group booking request is full")
	}

	numberOfHorses := input.NumberOfHorses
	if numberOfHorses == 0 {
		numberOfHorses = 1
	}

	participant := &models.GroupBookingParticipant{
		GroupBookingRequestID: request.ID,
		UserID:                input.UserID,
		NumberOfHorses:        numberOfHorses,
		HorseID:               input.HorseID,
		HorseName:             input.HorseName,
		HorseInfo:             input.HorseInfo,
		Notes:                 input.Notes,
		Status:                enums.ParticipantStatusJoined,
	}

	created, err := s.repo.AddParticipant(ctx, participant)
	if err != nil {
		// The partial unique index closes the window between the participation
		// check above and this insert.
		if db.IsUniqueViolation(err, "uq_group_participant_active") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already participates in this group booking")
		}
		return nil, s.wrapInternal(ctx, err, "adding participant")
	}

	ctx = s.logg.WithGroupRequestID(ctx, request.ID.String())
	s.logg.Info(ctx, "participant joined group booking request")
	s.notify(ctx, request.CreatorID, enums.NotificationKindGroupJoined, request.ID,
		"A new participant joined your group booking request")

	return created, nil
}

func (s *service) Update(ctx context.Context, id, creatorID uuid.UUID, input UpdateInput) (*models.GroupBookingRequest, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid update").
			WithDetails(validationDetails(err))
	}

	request, err := s.repo.FindByIDForCreator(ctx, id, creatorID)
	if err != nil {
		return nil, mapLookupErr(err, "group booking request not found")
	}

	if input.Status != nil {
		if input.Notes != nil || input.MaxParticipants != nil || input.JoinDeadline != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				"a status change cannot be combined with other field updates")
		}
		if *input.Status != enums.GroupBookingStatusCancelled {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("status cannot be set to %s", *input.Status))
		}
		if err := s.CancelRequest(ctx, id, creatorID); err != nil {
			return nil, err
		}
		return s.repo.FindByIDForCreator(ctx, id, creatorID)
	}

	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("group booking request is %s", request.Status))
	}

	updates := map[string]any{}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.JoinDeadline != nil {
		if input.JoinDeadline.After(request.DateFrom) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "join deadline must not be after the requested window start")
		}
		updates["join_deadline"] = *input.JoinDeadline
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants > s.cfg.AbsoluteMaxMembers {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("max participants cannot exceed %d", s.cfg.AbsoluteMaxMembers))
		}
		active, countErr := s.repo.CountActiveParticipants(ctx, id)
		if countErr != nil {
			return nil, s.wrapInternal(ctx, countErr, "counting participants")
		}
		if int64(*input.MaxParticipants) < active {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("max participants cannot drop below the current %d active participants", active))
		}
		updates["max_participants"] = *input.MaxParticipants
	}

	if len(updates) == 0 {
		return request, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, s.wrapInternal(ctx, err, "updating group booking request")
	}
	return s.repo.FindByIDForCreator(ctx, id, creatorID)
}

func (s *service) CancelRequest(ctx context.Context, id, creatorID uuid.UUID) error {
	if _, err := s.repo.FindByIDForCreator(ctx, id, creatorID); err != nil {
		return mapLookupErr(err, "group booking request not found")
	}

	// Snapshot joined participants before the flip so cancellation notices can
	// still be addressed.
	projection, err := s.repo.FindForMatch(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.wrapInternal(ctx, err, "loading participants")
	}

	cancelled, err := s.repo.CancelRequest(ctx, id)
	if err != nil {
		return s.wrapInternal(ctx, err, "cancelling group booking request")
	}
	if !cancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only open group booking requests can be cancelled")
	}

	ctx = s.logg.WithGroupRequestID(ctx, id.String())
	s.logg.Info(ctx, "group booking request cancelled")
	if projection != nil {
		for _, p := range projection.Participants {
			if p.UserID == creatorID {
				continue
			}
			s.notify(ctx, p.UserID, enums.NotificationKindGroupCancelled, id,
				"A group booking request you joined was cancelled")
		}
	}
	return nil
}

func (s *service) CancelParticipant(ctx context.Context, requestID, participantID, userID uuid.UUID) error {
	participant, err := s.repo.FindParticipantWithAccess(ctx, participantID, requestID, userID)
	if err != nil {
		return mapLookupErr(err, "participant not found")
	}
	if participant.Status != enums.ParticipantStatusJoined {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("participant is %s", participant.Status))
	}

	// Resolve the creator before the flip; the caller's participant row stops
	// granting access once it is cancelled.
	request, err := s.repo.FindByIDWithAccess(ctx, requestID, userID, enums.UserTypeCustomer)
	if err != nil {
		return mapLookupErr(err, "group booking request not found")
	}

	cancelled, err := s.repo.CancelParticipant(ctx, participantID)
	if err != nil {
		return s.wrapInternal(ctx, err, "cancelling participant")
	}
	if !cancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "participant is no longer in a joined state")
	}

	ctx = s.logg.WithGroupRequestID(ctx, requestID.String())
	s.logg.Info(ctx, "participant cancelled")

	if participant.UserID != request.CreatorID {
		s.notify(ctx, request.CreatorID, enums.NotificationKindGroupParticipantCancelled, requestID,
			"A participant left your group booking request")
	}
	return nil
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, requestID uuid.UUID, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Record(ctx, userID, kind, requestID, message); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("recording %s notification failed: %v", kind, err))
	}
}

// wrapInternal logs the structured driver error dump (SQLSTATE, constraint,
// table) before handing back the opaque internal error callers see.
func (s *service) wrapInternal(ctx context.Context, err error, message string) error {
	s.logg.Error(s.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), message, err)
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

func mapLookupErr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

// validationDetails flattens validator errors into field/tag pairs suitable
// for the details payload.
func validationDetails(err error) []map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]map[string]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return details
}
