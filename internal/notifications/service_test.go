package notifications

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
	pkgerrors "github.com/stablemate-app/stablemate-backend/pkg/errors"
	"github.com/stablemate-app/stablemate-backend/pkg/logger"
	"github.com/stablemate-app/stablemate-backend/pkg/pagination"
)

type fakeRepo struct {
	created   []*models.Notification
	markRead  bool
	markedAll int64
}

func (f *fakeRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeRepo) FindByUser(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Notification, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return f.markRead, nil
}

func (f *fakeRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.markedAll, nil
}

func newNotificationsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestRecord(t *testing.T) {
	repo := &fakeRepo{}
	svc := newNotificationsService(t, repo)
	ctx := context.Background()

	userID := uuid.New()
	requestID := uuid.New()
	err := svc.Record(ctx, userID, enums.NotificationKindGroupMatched, requestID,
		"Your group booking request was matched with a provider")
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, userID, repo.created[0].UserID)
	require.NotNil(t, repo.created[0].GroupBookingRequestID)
	assert.Equal(t, requestID, *repo.created[0].GroupBookingRequestID)

	err = svc.Record(ctx, userID, enums.NotificationKind("bogus"), requestID, "nope")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.Record(ctx, userID, enums.NotificationKindGroupJoined, requestID, "")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestMarkRead_NotFound(t *testing.T) {
	repo := &fakeRepo{markRead: false}
	svc := newNotificationsService(t, repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	repo.markRead = true
	assert.NoError(t, svc.MarkRead(context.Background(), uuid.New(), uuid.New()))
}
