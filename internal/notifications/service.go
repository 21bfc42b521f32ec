package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	pkgerrors "github.com/stablemate-app/stablemate-backend/pkg/errors"
	"github.com/stablemate-app/stablemate-backend/pkg/logger"
	"github.com/stablemate-app/stablemate-backend/pkg/pagination"
)

// Service is the notifications application surface. Record is the write path
// other services call after a state change; the remaining operations back the
// per-user inbox.
type Service interface {
	Record(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, requestID uuid.UUID, message string) error
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// List wraps one page of notifications plus the next page cursor.
type List struct {
	Notifications []models.Notification `json:"notifications"`
	NextCursor    string                `json:"next_cursor,omitempty"`
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the notifications service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Record(ctx context.Context, userID uuid.UUID, kind enums.NotificationKind, requestID uuid.UUID, message string) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown notification kind %q", kind))
	}
	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification message is required")
	}

	notification := &models.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
	}
	if requestID != uuid.Nil {
		id := requestID
		notification.GroupBookingRequestID = &id
	}

	if _, err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording notification")
	}
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}

	items, next, err := s.repo.FindByUser(ctx, userID, ListParams{
		Limit:  params.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing notifications")
	}

	list := &List{Notifications: items}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	marked, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notification read")
	}
	if !marked {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	marked, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notifications read")
	}
	return marked, nil
}
