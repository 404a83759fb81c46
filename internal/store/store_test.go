package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"laundry-reserve-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestReleaseExpiredRetriesTransientFailure(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)
	now := time.Date(2026, 3, 14, 10, 0, 1, 0, time.UTC)

	// First attempt hits a transient failure, the retry succeeds.
	mock.ExpectExec(`UPDATE "appliances"`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectExec(`UPDATE "appliances"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cleared, err := s.ReleaseExpired(context.Background(), 1, now)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredExhaustsRetries(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)
	now := time.Date(2026, 3, 14, 10, 0, 1, 0, time.UTC)

	for i := 0; i < retryAttempts; i++ {
		mock.ExpectExec(`UPDATE "appliances"`).
			WillReturnError(errors.New("connection reset by peer"))
	}

	_, err := s.ReleaseExpired(context.Background(), 1, now)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// newSQLiteStore opens a fresh in-memory database for tests that need real
// transaction and unique-index behavior.
func newSQLiteStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(&model.Appliance{}, &model.ReservationLog{}))
	return NewGormStore(testDB), testDB
}

func TestCreateReservationDailyLimitRaceLoser(t *testing.T) {
	s, testDB := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, testDB.Create(&model.Appliance{ID: 1, Kind: model.KindWasher}).Error)
	require.NoError(t, testDB.Create(&model.Appliance{ID: 2, Kind: model.KindWasher}).Error)

	params := ReservationParams{
		ApplianceID: 1,
		UserID:      42,
		Kind:        model.KindWasher,
		Now:         now,
		Until:       now.Add(time.Hour),
		Day:         model.DayOf(now),
	}
	_, err := s.CreateReservation(ctx, params)
	require.NoError(t, err)

	// A second write for the same (user, kind, day) on another free
	// appliance goes straight at the log's unique index, as a concurrent
	// request that passed the limit check before the first committed would.
	params.ApplianceID = 2
	_, err = s.CreateReservation(ctx, params)
	var dl *DailyLimitError
	require.ErrorAs(t, err, &dl)
	assert.Equal(t, model.KindWasher, dl.Kind)

	// The rollback reverted the loser's appliance occupation.
	var loser model.Appliance
	require.NoError(t, testDB.First(&loser, 2).Error)
	assert.False(t, loser.Occupied)
	assert.Nil(t, loser.ReservedBy)
	assert.Nil(t, loser.ReservedUntil)

	// Only the winner's log entry exists.
	var logged int64
	require.NoError(t, testDB.Model(&model.ReservationLog{}).Count(&logged).Error)
	assert.Equal(t, int64(1), logged)
}

func TestCreateReservationDoesNotRetryDomainRejection(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// The conditional update matches no row: the appliance is occupied. A
	// single transaction attempt must be made, no retries.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "appliances"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.CreateReservation(context.Background(), ReservationParams{
		ApplianceID: 1,
		UserID:      42,
		Kind:        "washer",
		Now:         now,
		Until:       now.Add(time.Hour),
		Day:         "2026-03-14",
	})
	assert.ErrorIs(t, err, ErrApplianceInUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserHeldKindOn(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "reservation_logs"`).
		WithArgs(int64(42), "washer", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	held, err := s.UserHeldKindOn(context.Background(), 42, "washer", "2026-03-14")
	require.NoError(t, err)
	assert.True(t, held)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateKey(errors.New("UNIQUE constraint failed: reservation_logs.user_id")))
	assert.True(t, isDuplicateKey(errors.New(`ERROR: duplicate key value violates unique constraint "idx_reservation_user_kind_day" (SQLSTATE 23505)`)))
	assert.False(t, isDuplicateKey(errors.New("connection reset by peer")))
}
