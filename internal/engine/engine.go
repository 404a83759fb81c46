// Package engine implements the appliance reservation lifecycle: status
// derivation, decay of expired reservations and the validated reserve
// operation.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"laundry-reserve-backend/config"
	"laundry-reserve-backend/internal/clock"
	"laundry-reserve-backend/internal/model"
	"laundry-reserve-backend/internal/store"
)

// Status is the user-facing label derived from occupancy and time.
type Status string

const (
	StatusFree       Status = "free"
	StatusInUse      Status = "in_use"
	StatusAlmostDone Status = "almost_done"
)

// ApplianceView is the presentation-layer projection of one appliance.
type ApplianceView struct {
	ID            int64      `json:"id"`
	Kind          string     `json:"kind"`
	Status        Status     `json:"status"`
	ReservedUntil *time.Time `json:"reservedUntil,omitempty"`
}

// Engine validates and performs reservation requests against the store.
// All time comparisons use the injected clock, normalized to UTC.
type Engine struct {
	store      store.Store
	clock      clock.Clock
	duration   time.Duration
	almostDone time.Duration
}

// New creates a reservation engine.
func New(cfg *config.ReservationConfig, s store.Store, c clock.Clock) *Engine {
	return &Engine{
		store:      s,
		clock:      c,
		duration:   cfg.Duration,
		almostDone: cfg.AlmostDoneWindow,
	}
}

// Duration returns the fixed reservation length.
func (e *Engine) Duration() time.Duration {
	return e.duration
}

// DeriveStatus computes the display status of an appliance at the given
// time. It is pure: a lapsed reservation still reads as almost_done here and
// only Decay transitions it to free, which every read and write path runs
// first.
func (e *Engine) DeriveStatus(a model.Appliance, now time.Time) Status {
	if !a.Occupied || a.ReservedUntil == nil {
		return StatusFree
	}
	if a.ReservedUntil.Sub(now) <= e.almostDone {
		return StatusAlmostDone
	}
	return StatusInUse
}

// Decay clears the appliance's reservation if it has lapsed. It reports
// whether this call performed the transition; an already-free appliance or a
// still-active reservation is a no-op.
func (e *Engine) Decay(ctx context.Context, a model.Appliance, now time.Time) (bool, error) {
	if !a.Occupied || a.ReservedUntil == nil || !now.After(*a.ReservedUntil) {
		return false, nil
	}
	return e.store.ReleaseExpired(ctx, a.ID, now)
}

// Reserve grants userID a reservation on the given appliance for the fixed
// duration, in order: existence, decay of a lapsed holder, free check, daily
// limit per (user, kind, UTC day). Rejections leave every record untouched.
func (e *Engine) Reserve(ctx context.Context, applianceID, userID int64) (model.ReservationLog, error) {
	now := e.clock.Now().UTC()

	appliance, err := e.store.GetAppliance(ctx, applianceID)
	if err != nil {
		return model.ReservationLog{}, err
	}

	// Reclaim a just-expired reservation so it does not block this one. A
	// lapsed reservation counts as free even when a concurrent sweep already
	// did the clearing.
	lapsed := appliance.Occupied && appliance.ReservedUntil != nil && now.After(*appliance.ReservedUntil)
	if lapsed {
		if _, err := e.Decay(ctx, appliance, now); err != nil {
			return model.ReservationLog{}, err
		}
	} else if appliance.Occupied {
		return model.ReservationLog{}, store.ErrApplianceInUse
	}

	day := model.DayOf(now)
	held, err := e.store.UserHeldKindOn(ctx, userID, appliance.Kind, day)
	if err != nil {
		return model.ReservationLog{}, err
	}
	if held {
		return model.ReservationLog{}, &store.DailyLimitError{Kind: appliance.Kind}
	}

	return e.store.CreateReservation(ctx, store.ReservationParams{
		ApplianceID: applianceID,
		UserID:      userID,
		Kind:        appliance.Kind,
		Now:         now,
		Until:       now.Add(e.duration),
		Day:         day,
	})
}

// ListViews returns the fleet as display views, decaying each lapsed
// reservation first so a caller never sees an expired one as in use. A decay
// failure on one appliance is logged and does not abort the listing; the
// affected appliance is presented as free since its reservation has lapsed.
func (e *Engine) ListViews(ctx context.Context) ([]ApplianceView, error) {
	now := e.clock.Now().UTC()

	appliances, err := e.store.ListAppliances(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ApplianceView, 0, len(appliances))
	for _, a := range appliances {
		lapsed := a.Occupied && a.ReservedUntil != nil && now.After(*a.ReservedUntil)
		if lapsed {
			if _, err := e.Decay(ctx, a, now); err != nil {
				log.Printf("Failed to decay appliance %d during listing: %v", a.ID, err)
			}
			a.Occupied = false
			a.ReservedUntil = nil
		}

		view := ApplianceView{
			ID:     a.ID,
			Kind:   a.Kind,
			Status: e.DeriveStatus(a, now),
		}
		if a.Occupied {
			view.ReservedUntil = a.ReservedUntil
		}
		views = append(views, view)
	}
	return views, nil
}

// SweepOnce runs decay across the whole fleet. Failures on individual
// appliances are logged and skipped so one bad record cannot stall the rest;
// it returns the number of reservations reclaimed.
func (e *Engine) SweepOnce(ctx context.Context) (int, error) {
	now := e.clock.Now().UTC()

	appliances, err := e.store.ListAppliances(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep failed to list appliances: %w", err)
	}

	reclaimed := 0
	for _, a := range appliances {
		done, err := e.Decay(ctx, a, now)
		if err != nil {
			log.Printf("Sweep failed to decay appliance %d: %v", a.ID, err)
			continue
		}
		if done {
			reclaimed++
		}
	}
	return reclaimed, nil
}
