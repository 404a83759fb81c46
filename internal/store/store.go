package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"laundry-reserve-backend/internal/model"
)

// ReservationParams carries the validated inputs of a reservation attempt
// into the transactional write.
type ReservationParams struct {
	ApplianceID int64
	UserID      int64
	Kind        string
	Now         time.Time
	Until       time.Time
	Day         string
}

// Store defines the persistence interface for appliances and the
// reservation log.
type Store interface {
	// GetAppliance returns the appliance or ErrApplianceNotFound.
	GetAppliance(ctx context.Context, id int64) (model.Appliance, error)

	// ListAppliances returns the whole fleet ordered by id.
	ListAppliances(ctx context.Context) ([]model.Appliance, error)

	// ReleaseExpired clears an appliance's reservation fields if it is still
	// occupied and its reservation lapsed before now. The check and the write
	// are a single conditional UPDATE, so concurrent callers cannot race into
	// an inconsistent state; it reports whether this call did the clearing.
	ReleaseExpired(ctx context.Context, applianceID int64, now time.Time) (bool, error)

	// UserHeldKindOn reports whether the user holds a logged reservation of
	// the given kind on the given day.
	UserHeldKindOn(ctx context.Context, userID int64, kind, day string) (bool, error)

	// CreateReservation atomically occupies a free appliance and appends the
	// reservation log entry. It returns ErrApplianceInUse when the appliance
	// was not free, and *DailyLimitError when the log's uniqueness claim for
	// (user, kind, day) is already taken.
	CreateReservation(ctx context.Context, p ReservationParams) (model.ReservationLog, error)

	// DB exposes the underlying handle for migrations and tests.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetAppliance(ctx context.Context, id int64) (model.Appliance, error) {
	var appliance model.Appliance
	err := s.withRetry(ctx, func() error {
		err := s.db.WithContext(ctx).First(&appliance, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplianceNotFound
		}
		return err
	})
	if err != nil {
		return model.Appliance{}, err
	}
	return appliance, nil
}

func (s *gormStore) ListAppliances(ctx context.Context) ([]model.Appliance, error) {
	var appliances []model.Appliance
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Order("id").Find(&appliances).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appliances: %w", err)
	}
	return appliances, nil
}

func (s *gormStore) ReleaseExpired(ctx context.Context, applianceID int64, now time.Time) (bool, error) {
	var cleared bool
	err := s.withRetry(ctx, func() error {
		res := s.db.WithContext(ctx).
			Model(&model.Appliance{}).
			Where("id = ? AND occupied = ? AND reserved_until < ?", applianceID, true, now).
			Updates(map[string]any{
				"occupied":       false,
				"reserved_by":    nil,
				"reserved_at":    nil,
				"reserved_until": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		cleared = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to release appliance %d: %w", applianceID, err)
	}
	return cleared, nil
}

func (s *gormStore) UserHeldKindOn(ctx context.Context, userID int64, kind, day string) (bool, error) {
	var count int64
	err := s.withRetry(ctx, func() error {
		return s.db.WithContext(ctx).
			Model(&model.ReservationLog{}).
			Where("user_id = ? AND kind = ? AND day = ?", userID, kind, day).
			Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to query reservation log: %w", err)
	}
	return count > 0, nil
}

func (s *gormStore) CreateReservation(ctx context.Context, p ReservationParams) (model.ReservationLog, error) {
	entry := model.ReservationLog{
		ApplianceID:   p.ApplianceID,
		UserID:        p.UserID,
		Kind:          p.Kind,
		Day:           p.Day,
		ReservedAt:    p.Now,
		ReservedUntil: p.Until,
	}

	err := s.withRetry(ctx, func() error {
		// Reset the autoincrement id so a retried transaction re-inserts.
		entry.ID = 0
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// The conditional update is the exclusivity point: of two
			// concurrent reserves on the same free appliance, exactly one
			// affects a row.
			res := tx.Model(&model.Appliance{}).
				Where("id = ? AND occupied = ?", p.ApplianceID, false).
				Updates(map[string]any{
					"occupied":       true,
					"reserved_by":    p.UserID,
					"reserved_at":    p.Now,
					"reserved_until": p.Until,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrApplianceInUse
			}

			if err := tx.Create(&entry).Error; err != nil {
				if isDuplicateKey(err) {
					// Another same-day reservation of this kind committed
					// between the limit check and this write.
					return &DailyLimitError{Kind: p.Kind}
				}
				return err
			}
			return nil
		})
	})
	if err != nil {
		if isDomainError(err) {
			return model.ReservationLog{}, err
		}
		return model.ReservationLog{}, fmt.Errorf("failed to create reservation: %w", err)
	}
	return entry, nil
}
