package bookings

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

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  provider_id TEXT NOT NULL,
  service_id TEXT NOT NULL,
  booking_date DATETIME NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  horse_id TEXT,
  horse_name TEXT,
  horse_info TEXT,
  customer_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func seedBooking(t *testing.T, conn *gorm.DB, customerID, providerID uuid.UUID, date time.Time, start string) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:          uuid.New(),
		CustomerID:  customerID,
		ProviderID:  providerID,
		ServiceID:   uuid.New(),
		BookingDate: date,
		StartTime:   start,
		EndTime:     "17:00",
		Status:      enums.BookingStatusConfirmed,
	}
	require.NoError(t, conn.Create(booking).Error)
	return booking
}

func TestCreateAndFindByID(t *testing.T) {
	conn := setupBookingsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	booking := &models.Booking{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		ProviderID:  uuid.New(),
		ServiceID:   uuid.New(),
		BookingDate: time.Now().Add(48 * time.Hour),
		StartTime:   "09:00",
		EndTime:     "10:00",
		Status:      enums.BookingStatusConfirmed,
	}
	created, err := repo.Create(ctx, booking)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.CustomerID, found.CustomerID)
	assert.Equal(t, enums.BookingStatusConfirmed, found.Status)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindByProvider_OrdersBySchedule(t *testing.T) {
	conn := setupBookingsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	provider := uuid.New()
	day := time.Now().Truncate(24 * time.Hour).Add(72 * time.Hour)
	late := seedBooking(t, conn, uuid.New(), provider, day, "14:00")
	early := seedBooking(t, conn, uuid.New(), provider, day, "08:00")
	nextDay := seedBooking(t, conn, uuid.New(), provider, day.Add(24*time.Hour), "07:00")
	seedBooking(t, conn, uuid.New(), uuid.New(), day, "09:00")

	list, err := repo.FindByProvider(ctx, provider)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)
	assert.Equal(t, nextDay.ID, list[2].ID)
}

func TestFindByCustomer(t *testing.T) {
	conn := setupBookingsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customer := uuid.New()
	seedBooking(t, conn, customer, uuid.New(), time.Now().Add(24*time.Hour), "09:00")
	seedBooking(t, conn, customer, uuid.New(), time.Now().Add(48*time.Hour), "09:00")
	seedBooking(t, conn, uuid.New(), uuid.New(), time.Now().Add(24*time.Hour), "09:00")

	list, err := repo.FindByCustomer(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
