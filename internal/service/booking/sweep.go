package booking

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SweepResult struct {
	Scanned  int
	Advanced int
	Failed   int
}

// Sweep re-evaluates every open booking and applies the automatic edges
// that are due. Bookings are locked one at a time; a guard that does not
// hold is not a failure. Only storage errors count as failed.
func (s *BookingService) Sweep(ctx context.Context) (SweepResult, error) {
	ids, err := s.bookings.ListOpenIDs(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var advanced, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			changed, err := s.advanceOne(gctx, id)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.Error("sweep booking", zap.String("booking_id", id), zap.Error(err))
			case changed:
				advanced.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return SweepResult{
		Scanned:  len(ids),
		Advanced: int(advanced.Load()),
		Failed:   int(failed.Load()),
	}, ctx.Err()
}

func (s *BookingService) advanceOne(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	now := s.now()
	applied := advance(booking, now, s.windows)
	if len(applied) == 0 {
		return false, nil
	}

	if err := s.persist(ctx, booking, applied, now); err != nil {
		// Another instance moved it first; the next sweep sees the new state.
		if errors.Is(err, domain.ErrStaleBooking) {
			s.log.Debug("sweep skipped stale booking", zap.String("booking_id", id))
			return false, nil
		}
		return false, err
	}

	s.log.Debug("booking advanced",
		zap.String("booking_id", id),
		zap.String("status", string(booking.Status)),
		zap.Int("transitions", len(applied)),
	)
	return true, nil
}
