package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/visitbooking/internal/service/booking"
	"go.uber.org/zap"
)

const DefaultInterval = time.Minute

type Sweeper interface {
	Sweep(ctx context.Context) (booking.SweepResult, error)
}

// TransitionScheduler drives time-based booking transitions by sweeping all
// open bookings on a fixed interval.
type TransitionScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	lastRun  time.Time
	lastStat booking.SweepResult
}

func NewTransitionScheduler(sweeper Sweeper, interval time.Duration, log *zap.Logger) *TransitionScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TransitionScheduler{sweeper: sweeper, interval: interval, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *TransitionScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("transition scheduler started", zap.Duration("interval", s.interval))
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("transition scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *TransitionScheduler) RunOnce(ctx context.Context) booking.SweepResult {
	started := time.Now()
	res, err := s.sweeper.Sweep(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Error("sweep failed", zap.Error(err))
	}

	s.mu.Lock()
	s.lastRun, s.lastStat = started, res
	s.mu.Unlock()

	s.log.Debug("sweep completed",
		zap.Int("scanned", res.Scanned),
		zap.Int("advanced", res.Advanced),
		zap.Int("failed", res.Failed),
		zap.Duration("took", time.Since(started)),
	)
	if res.Failed > 0 {
		s.log.Warn("bookings failed to advance during sweep", zap.Int("failed", res.Failed))
	}
	return res
}

// LastRun reports when the previous sweep started and what it did.
func (s *TransitionScheduler) LastRun() (time.Time, booking.SweepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastStat
}
