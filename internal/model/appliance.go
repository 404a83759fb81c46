package model

import "time"

// Kind identifies the appliance category. The fleet is fixed at provisioning
// time and a kind never changes afterwards.
const (
	KindWasher = "washer"
	KindDryer  = "dryer"
)

// Appliance represents a single shared machine and its current occupancy.
//
// The reservation fields are present exactly when Occupied is true; the
// store clears all three together when a reservation decays.
type Appliance struct {
	ID            int64  `gorm:"primaryKey"`
	Kind          string `gorm:"size:20;not null;index"`
	Occupied      bool   `gorm:"not null;default:false"`
	ReservedBy    *int64 `gorm:"index"`
	ReservedAt    *time.Time
	ReservedUntil *time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
