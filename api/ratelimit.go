package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ActorLimiter keeps one token bucket per actor. Buckets idle for longer
// than idleTTL are dropped on the next call.
type ActorLimiter struct {
	mu        sync.Mutex
	actors    map[string]*actorBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastPrune time.Time
	now       func() time.Time
}

type actorBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewActorLimiter(perSecond float64, burst int) *ActorLimiter {
	return &ActorLimiter{
		actors:  make(map[string]*actorBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (l *ActorLimiter) Allow(actorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > l.idleTTL {
		for id, b := range l.actors {
			if now.Sub(b.lastSeen) > l.idleTTL {
				delete(l.actors, id)
			}
		}
		l.lastPrune = now
	}

	b, ok := l.actors[actorID]
	if !ok {
		b = &actorBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.actors[actorID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
