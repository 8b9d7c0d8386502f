package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Defaults for the background sweep.
const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultSweepBackoff  = time.Minute
)

// Cleaner is anything that can purge its expired entries.
type Cleaner interface {
	CleanupExpired() int
}

/*
Sweeper periodically purges expired entries.

Lazy expiry on Get only reclaims entries somebody asks for again. The sweeper
reclaims the rest. Nothing restarts it, so a failing sweep is logged and the
loop carries on after a back-off instead of returning.
*/
type Sweeper struct {
	target   Cleaner
	interval time.Duration
	backoff  time.Duration
	log      *slog.Logger

	runs    *atomic.Int64
	removed *atomic.Int64
	faults  *atomic.Int64
}

// NewSweeper builds a sweeper over target. Non-positive durations take the defaults.
func NewSweeper(target Cleaner, interval, backoff time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if backoff <= 0 {
		backoff = DefaultSweepBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		target:   target,
		interval: interval,
		backoff:  backoff,
		log:      logger.With("component", "sweeper"),
		runs:     atomic.NewInt64(0),
		removed:  atomic.NewInt64(0),
		faults:   atomic.NewInt64(0),
	}
}

/*
Run sweeps every interval until ctx is done. It always returns nil.

After a failed sweep the next attempt comes after backoff alone, not backoff
plus interval; the regular interval resumes after the next successful sweep.
*/
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info("cache sweeper started", "interval", s.interval.String())
	wait := s.interval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("cache sweeper stopped", "runs", s.runs.Load(), "removed", s.removed.Load())
			return nil
		case <-timer.C:
		}

		wait = s.interval
		n, err := s.Sweep()
		switch {
		case err != nil:
			s.log.Error("cache sweep failed", "error", err, "retry_in", s.backoff.String())
			wait = s.backoff
		case n > 0:
			s.log.Info("cache sweep removed expired entries", "removed", n)
		default:
			s.log.Debug("cache sweep found nothing expired")
		}
		timer.Reset(wait)
	}
}

// Sweep runs one cleanup pass, turning a panic into an error.
func (s *Sweeper) Sweep() (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.faults.Inc()
			err = fmt.Errorf("cache sweep panicked: %v", r)
		}
	}()
	n = s.target.CleanupExpired()
	s.runs.Inc()
	s.removed.Add(int64(n))
	return n, nil
}

// SweepStats summarizes what the sweeper has done so far.
type SweepStats struct {
	Runs     int64         `json:"runs"`
	Removed  int64         `json:"removed"`
	Faults   int64         `json:"faults"`
	Interval time.Duration `json:"interval"`
}

// Stats returns the counters so far.
func (s *Sweeper) Stats() SweepStats {
	return SweepStats{
		Runs:     s.runs.Load(),
		Removed:  s.removed.Load(),
		Faults:   s.faults.Load(),
		Interval: s.interval,
	}
}
