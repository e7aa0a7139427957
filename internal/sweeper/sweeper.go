// Package sweeper triggers the overdue sweep on a fixed interval from outside
// the borrow engine.
package sweeper

import (
	"context"
	"log"
	"time"

	"labequip-backend/config"
)

// Sweeper is the operation the runner triggers.
type Sweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// Runner calls a Sweeper once at start and then every interval.
type Runner struct {
	cfg     config.SweeperConfig
	sweeper Sweeper
}

// NewRunner creates a runner for s.
func NewRunner(cfg config.SweeperConfig, s Sweeper) *Runner {
	return &Runner{cfg: cfg, sweeper: s}
}

// Run blocks until ctx is cancelled. It returns immediately when the runner is disabled.
func (r *Runner) Run(ctx context.Context) {
	if !r.cfg.Enabled {
		log.Println("Overdue sweeper is disabled. Not starting.")
		return
	}
	log.Printf("Starting overdue sweeper, interval %s", r.cfg.Interval)

	r.SweepOnce(ctx)

	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Overdue sweeper shutting down.")
			return
		case <-timer.C:
			r.SweepOnce(ctx)
			timer.Reset(r.cfg.Interval)
		}
	}
}

// SweepOnce runs a single sweep and logs the outcome.
func (r *Runner) SweepOnce(ctx context.Context) {
	n, err := r.sweeper.SweepOverdue(ctx)
	if err != nil {
		log.Printf("Overdue sweep failed: %v", err)
		return
	}
	log.Printf("Overdue sweep finished, %d records marked", n)
}
