package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"go.uber.org/zap"
)

type Publisher interface {
	PublishEvent(ctx context.Context, event domain.LifecycleEvent) error
}

// Sink is a fire-and-forget notifier. Notify never blocks the caller: events
// go through a bounded queue and are dropped, with a log line, when it is full.
type Sink struct {
	publisher Publisher
	queue     chan domain.LifecycleEvent
	log       *zap.Logger

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

func NewSink(publisher Publisher, size int, log *zap.Logger) *Sink {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sink{
		publisher: publisher,
		queue:     make(chan domain.LifecycleEvent, size),
		log:       log,
		done:      make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *Sink) Notify(_ context.Context, event domain.LifecycleEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(event, "sink closed")
		return
	}
	select {
	case s.queue <- event:
	default:
		s.drop(event, "queue full")
	}
}

func (s *Sink) drop(event domain.LifecycleEvent, why string) {
	s.dropped.Add(1)
	s.log.Warn("lifecycle event dropped",
		zap.String("reason", why),
		zap.String("type", string(event.Type)),
		zap.String("booking_id", event.BookingID),
	)
}

func (s *Sink) drain() {
	defer close(s.done)
	for event := range s.queue {
		if err := s.publisher.PublishEvent(context.Background(), event); err != nil {
			s.log.Error("publish lifecycle event",
				zap.String("type", string(event.Type)),
				zap.String("booking_id", event.BookingID),
				zap.Error(err),
			)
		}
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to
// end, whichever comes first.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// LogPublisher only logs events. It backs the sink when no broker is set up.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishEvent(_ context.Context, event domain.LifecycleEvent) error {
	p.log.Info("lifecycle event",
		zap.String("type", string(event.Type)),
		zap.String("booking_id", event.BookingID),
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)),
		zap.String("actor", event.Actor),
	)
	return nil
}
