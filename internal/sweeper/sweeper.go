// Package sweeper drives periodic decay of expired reservations so that an
// appliance flips back to free even when nobody is polling the API.
package sweeper

import (
	"context"
	"log"
	"time"

	"laundry-reserve-backend/config"
	"laundry-reserve-backend/internal/engine"
)

// Sweeper runs the engine's fleet-wide decay on a fixed interval.
type Sweeper struct {
	engine   *engine.Engine
	enabled  bool
	interval time.Duration
}

// New creates a sweeper bound to the given engine.
func New(cfg *config.SweeperConfig, eng *engine.Engine) *Sweeper {
	return &Sweeper{
		engine:   eng,
		enabled:  cfg.Enabled,
		interval: cfg.Interval,
	}
}

// Run executes sweep cycles until ctx is cancelled. It sweeps once
// immediately so a restart reclaims reservations that expired while the
// process was down.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.enabled {
		log.Println("Sweeper is disabled. Not starting.")
		return
	}
	log.Printf("Starting sweeper with interval %s", s.interval)

	s.sweep(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper shutting down.")
			return
		case <-timer.C:
			s.sweep(ctx)
			timer.Reset(s.interval)
		}
	}
}

// sweep runs a single cycle. Errors are logged, never propagated: the next
// tick gets a fresh attempt.
func (s *Sweeper) sweep(ctx context.Context) {
	reclaimed, err := s.engine.SweepOnce(ctx)
	if err != nil {
		log.Printf("Sweep cycle failed: %v", err)
		return
	}
	if reclaimed > 0 {
		log.Printf("Sweep cycle reclaimed %d expired reservation(s)", reclaimed)
	}
}
