package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stablemate-app/stablemate-backend/pkg/db/models"
	"github.com/stablemate-app/stablemate-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  group_booking_request_id TEXT,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func seedNotification(t *testing.T, conn *gorm.DB, userID uuid.UUID, created time.Time) *models.Notification {
	t.Helper()

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      enums.NotificationKindGroupJoined,
		Message:   "A new participant joined your group booking request",
		CreatedAt: created,
	}
	require.NoError(t, conn.Create(notification).Error)
	return notification
}

func TestFindByUser_PaginatesNewestFirst(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := uuid.New()
	base := time.Now().Add(-time.Hour)
	var seeded []*models.Notification
	for i := 0; i < 4; i++ {
		seeded = append(seeded, seedNotification(t, conn, user, base.Add(time.Duration(i)*time.Minute)))
	}
	seedNotification(t, conn, uuid.New(), base)

	page, cursor, err := repo.FindByUser(ctx, user, ListParams{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotNil(t, cursor)
	assert.Equal(t, seeded[3].ID, page[0].ID)
	assert.Equal(t, seeded[1].ID, page[2].ID)

	rest, cursor, err := repo.FindByUser(ctx, user, ListParams{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	assert.Nil(t, cursor)
	require.Len(t, rest, 1)
	assert.Equal(t, seeded[0].ID, rest[0].ID)
}

func TestMarkRead_IsUserScoped(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := uuid.New()
	notification := seedNotification(t, conn, user, time.Now())

	marked, err := repo.MarkRead(ctx, notification.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, marked, "another user's mark must not land")

	marked, err = repo.MarkRead(ctx, notification.ID, user)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = repo.MarkRead(ctx, notification.ID, user)
	require.NoError(t, err)
	assert.False(t, marked, "second mark is a no-op")
}

func TestCountUnreadAndMarkAllRead(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := uuid.New()
	for i := 0; i < 3; i++ {
		seedNotification(t, conn, user, time.Now())
	}
	seedNotification(t, conn, uuid.New(), time.Now())

	count, err := repo.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	marked, err := repo.MarkAllRead(ctx, user)
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	count, err = repo.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, count)
}
