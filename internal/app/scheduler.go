package app

import (
	"context"
	"sync"
	"time"

	"github.com/pickemlab/confidence-pool/internal/platform/logging"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

// Scheduler drives the lock service on a fixed interval. A failed tick is
// logged and retried on the next interval; the kickoff predicate makes a
// missed game due on every subsequent tick until it locks.
type Scheduler struct {
	lock     *usecase.LockService
	interval time.Duration
	logger   *logging.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(lock *usecase.LockService, interval time.Duration, logger *logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		lock:     lock,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx is cancelled. One tick runs
// immediately so a restart never waits a full interval to catch up on
// overdue locks.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	s.logger.Info("lock scheduler starting", "interval", s.interval.String())
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("lock scheduler stopping", "reason", "context cancelled")
			return
		case <-s.stop:
			s.logger.Info("lock scheduler stopping", "reason", "stop requested")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	summary, err := s.lock.Tick(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "lock tick failed", "error", err)
		return
	}
	if summary.GamesLocked > 0 || summary.FallbackPicks > 0 {
		s.logger.InfoContext(ctx, "lock tick completed",
			"leagues_scanned", summary.LeaguesScanned,
			"games_locked", summary.GamesLocked,
			"fallback_picks", summary.FallbackPicks,
			"shared", summary.Shared,
		)
	}
}

// Stop signals the run loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}
