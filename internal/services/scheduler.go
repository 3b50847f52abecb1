package services

import (
	"context"
	"time"

	"keytrace/internal/capture"

	"go.uber.org/zap"
)

// Scheduler periodically detaches screens whose client went away without detaching them,
// so their recorders do not linger in the registry.
type Scheduler struct {
	log         *zap.Logger
	registry    *capture.Registry
	interval    time.Duration
	idleTimeout func() time.Duration
}

// NewScheduler creates a sweep. idleTimeout is read on every sweep, so a reloaded
// configuration takes effect without a restart.
func NewScheduler(log *zap.Logger, registry *capture.Registry, interval time.Duration, idleTimeout func() time.Duration) *Scheduler {
	return &Scheduler{
		log:         log,
		registry:    registry,
		interval:    interval,
		idleTimeout: idleTimeout,
	}
}

// Start runs the sweep in a goroutine until ctx is cancelled. A non-positive interval
// disables it.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("Idle screen sweep disabled")
		return
	}
	s.log.Info("Starting idle screen sweep...", zap.Duration("interval", s.interval), zap.Duration("idle_timeout", s.idleTimeout()))
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep detaches every screen idle for longer than the timeout and returns how many it closed.
// A non-positive timeout skips the sweep.
func (s *Scheduler) Sweep() int {
	timeout := s.idleTimeout()
	if timeout <= 0 {
		return 0
	}
	cutoff := s.registry.Now().Add(-timeout)
	idle := s.registry.DetachIdle(cutoff)
	if len(idle) > 0 {
		s.log.Info("Detached idle screens", zap.Int("count", len(idle)), zap.Strings("screen_ids", idle))
	} else {
		s.log.Debug("No idle screens")
	}
	return len(idle)
}
