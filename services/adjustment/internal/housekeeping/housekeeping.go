// Package housekeeping runs periodic maintenance for the adjustment service.
// Pricing never depends on it: eligibility checks validity windows itself,
// the job only keeps the stored active flags in line with them.
package housekeeping

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron"

	"github.com/utafrali/storefront/pkg/lock"
)

const lockKey = "housekeeping:expire"

// Expirer deactivates coupons and campaigns past their end date.
type Expirer interface {
	ExpireEntities(ctx context.Context) (coupons, campaigns int64, err error)
}

// Scheduler runs the expiry job on a cron schedule. Replicas sharing a
// distributed locker run it at most once at a time.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	expirer  Expirer
	locker   lock.Locker
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. The schedule uses robfig/cron syntax,
// e.g. "@every 5m".
func NewScheduler(schedule string, expirer Expirer, locker lock.Locker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		expirer:  expirer,
		locker:   locker,
		timeout:  time.Minute,
		logger:   logger,
	}
}

// Start registers the job and starts the cron loop in its own goroutine.
func (s *Scheduler) Start() error {
	if err := s.cron.AddFunc(s.schedule, func() { s.Run(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("housekeeping scheduler started", slog.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop. A run in progress is not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Run executes one expiry pass.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := lock.WithLock(ctx, s.locker, lockKey, func(ctx context.Context) error {
		_, _, err := s.expirer.ExpireEntities(ctx)
		return err
	})
	switch {
	case errors.Is(err, lock.ErrNotObtained):
		s.logger.DebugContext(ctx, "housekeeping skipped, another replica holds the lock")
	case err != nil:
		s.logger.ErrorContext(ctx, "housekeeping run failed", slog.String("error", err.Error()))
	}
}
