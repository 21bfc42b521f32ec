package groupbooking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	"github.com/stablemate-app/stablemate-backend/pkg/pagination"
)

// Explicit allow-lists keep relation expansion from leaking columns that were
// never meant to cross the persistence boundary.
var requestColumns = []string{
	"id", "creator_id", "service_type", "provider_id", "location_name",
	"address", "latitude", "longitude", "date_from", "date_to", "notes",
	"max_participants", "status", "invite_code", "join_deadline",
	"created_at", "updated_at",
}

var participantColumns = []string{
	"id", "group_booking_request_id", "user_id", "number_of_horses",
	"horse_id", "horse_name", "horse_info", "notes", "status", "booking_id",
	"joined_at", "updated_at",
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a group booking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// accessConditions composes the four visibility rules as one OR filter:
// creator, active participant, owner of the matched provider profile, or any
// provider while the request is open. The matched-provider rule checks
// profile ownership rather than mere presence of a provider id, so a matched
// request stays hidden from unrelated providers.
func (r *repository) accessConditions(userID uuid.UUID, userType enums.UserType) *gorm.DB {
	cond := r.db.
		Where("creator_id = ?", userID).
		Or("EXISTS (SELECT 1 FROM group_booking_participants gp WHERE gp.group_booking_request_id = group_booking_requests.id AND gp.user_id = ? AND gp.status <> ?)",
			userID, enums.ParticipantStatusCancelled).
		Or("provider_id IN (SELECT pp.id FROM provider_profiles pp WHERE pp.user_id = ?)", userID)
	if userType == enums.UserTypeProvider {
		cond = cond.Or("status = ?", enums.GroupBookingStatusOpen)
	}
	return cond
}

func (r *repository) Create(ctx context.Context, request *models.GroupBookingRequest) (*models.GroupBookingRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByIDWithAccess(ctx context.Context, id, userID uuid.UUID, userType enums.UserType) (*models.GroupBookingRequest, error) {
	var request models.GroupBookingRequest
	err := r.db.WithContext(ctx).
		Select(requestColumns).
		Where("id = ?", id).
		Where(r.accessConditions(userID, userType)).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Select(participantColumns).Order("joined_at ASC")
		}).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.GroupBookingRequest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.GroupBookingRequest{}).
		Select(requestColumns).
		Where(r.db.
			Where("creator_id = ?", userID).
			Or("EXISTS (SELECT 1 FROM group_booking_participants gp WHERE gp.group_booking_request_id = group_booking_requests.id AND gp.user_id = ? AND gp.status <> ?)",
				userID, enums.ParticipantStatusCancelled))
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var requests []models.GroupBookingRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	if len(requests) > normalized {
		requests = requests[:normalized]
		last := requests[len(requests)-1]
		return requests, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return requests, nil, nil
}

func (r *repository) FindOpenUpcoming(ctx context.Context, from time.Time) ([]models.GroupBookingRequest, error) {
	var requests []models.GroupBookingRequest
	err := r.db.WithContext(ctx).
		Select(requestColumns).
		Where("status = ? AND date_from >= ?", enums.GroupBookingStatusOpen, from).
		Order("date_from ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) FindByInviteCode(ctx context.Context, code string) (*InviteView, error) {
	var request models.GroupBookingRequest
	err := r.db.WithContext(ctx).
		Select(requestColumns).
		Where("invite_code = ?", code).
		First(&request).Error
	if err != nil {
		return nil, err
	}

	count, err := r.CountActiveParticipants(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	return &InviteView{Request: request, ActiveParticipants: count}, nil
}

func (r *repository) FindForMatch(ctx context.Context, id uuid.UUID) (*MatchProjection, error) {
	var request models.GroupBookingRequest
	err := r.db.WithContext(ctx).
		Select("id", "service_type", "date_from", "date_to").
		Where("id = ? AND status = ?", id, enums.GroupBookingStatusOpen).
		First(&request).Error
	if err != nil {
		return nil, err
	}

	var participants []models.GroupBookingParticipant
	err = r.db.WithContext(ctx).
		Select(participantColumns).
		Where("group_booking_request_id = ? AND status = ?", id, enums.ParticipantStatusJoined).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}

	projection := &MatchProjection{
		RequestID:    request.ID,
		ServiceType:  request.ServiceType,
		DateFrom:     request.DateFrom,
		DateTo:       request.DateTo,
		Participants: make([]MatchParticipant, 0, len(participants)),
	}
	for _, p := range participants {
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

func (r *repository) IsUserParticipant(ctx context.Context, requestID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupBookingParticipant{}).
		Where("group_booking_request_id = ? AND user_id = ? AND status <> ?",
			requestID, userID, enums.ParticipantStatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByIDForCreator(ctx context.Context, id, creatorID uuid.UUID) (*models.GroupBookingRequest, error) {
	var request models.GroupBookingRequest
	err := r.db.WithContext(ctx).
		Select(requestColumns).
		Where("id = ? AND creator_id = ?", id, creatorID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindParticipantWithAccess(ctx context.Context, participantID, requestID, userID uuid.UUID) (*models.GroupBookingParticipant, error) {
	var participant models.GroupBookingParticipant
	err := r.db.WithContext(ctx).
		Select(participantColumns).
		Where("id = ? AND group_booking_request_id = ?", participantID, requestID).
		Where(r.db.
			Where("user_id = ?", userID).
			Or("EXISTS (SELECT 1 FROM group_booking_requests gr WHERE gr.id = group_booking_participants.group_booking_request_id AND gr.creator_id = ?)", userID)).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repository) CountActiveParticipants(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupBookingParticipant{}).
		Where("group_booking_request_id = ? AND status <> ?",
			requestID, enums.ParticipantStatusCancelled).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.GroupBookingRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) AddParticipant(ctx context.Context, participant *models.GroupBookingParticipant) (*models.GroupBookingParticipant, error) {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		return nil, err
	}
	return participant, nil
}

func (r *repository) CancelParticipant(ctx context.Context, participantID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GroupBookingParticipant{}).
		Where("id = ? AND status = ?", participantID, enums.ParticipantStatusJoined).
		Update("status", enums.ParticipantStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CancelRequest(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GroupBookingRequest{}).
		Where("id = ? AND status = ?", id, enums.GroupBookingStatusOpen).
		Update("status", enums.GroupBookingStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) LinkParticipantBooking(ctx context.Context, participantID, bookingID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.GroupBookingParticipant{}).
		Where("id = ? AND status = ?", participantID, enums.ParticipantStatusJoined).
		Updates(map[string]any{
			"booking_id": bookingID,
			"status":     enums.ParticipantStatusBooked,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("participant %s is not in joined state", participantID)
	}
	return nil
}

func (r *repository) MarkMatched(ctx context.Context, id, providerID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GroupBookingRequest{}).
		Where("id = ? AND status = ?", id, enums.GroupBookingStatusOpen).
		Updates(map[string]any{
			"status":      enums.GroupBookingStatusMatched,
			"provider_id": providerID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
