package model

import "time"

// ReservationLog is the append-only record of every granted reservation.
//
// The composite unique index on (user_id, kind, day) is what enforces the
// one-reservation-per-kind-per-day rule: the claim outlives the appliance's
// current-reservation fields, which are cleared once the hour expires, and
// the index rejects the loser of two concurrent same-day reservations.
type ReservationLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	ApplianceID   int64     `gorm:"not null;index"`
	UserID        int64     `gorm:"not null;uniqueIndex:idx_reservation_user_kind_day"`
	Kind          string    `gorm:"size:20;not null;uniqueIndex:idx_reservation_user_kind_day"`
	Day           string    `gorm:"size:10;not null;uniqueIndex:idx_reservation_user_kind_day"`
	ReservedAt    time.Time `gorm:"not null"`
	ReservedUntil time.Time `gorm:"not null"`
	CreatedAt     time.Time
}

// DayOf returns the UTC calendar date of t in YYYY-MM-DD form. All day
// boundaries in the daily-limit rule are UTC.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
