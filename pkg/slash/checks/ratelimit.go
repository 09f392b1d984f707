package checks

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"interbot/pkg/slash"
)

// RateLimiter keeps one token bucket per actor.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*actorLimiter
	sweptAt  time.Time
}

type actorLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute invocations per actor with the given burst.
// perMinute <= 0 returns nil, which disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(perMinute)
	// A bucket may only be dropped once it would have refilled completely.
	idle := time.Duration(burst) * interval
	if idle < 10*time.Minute {
		idle = 10 * time.Minute
	}
	return &RateLimiter{
		limit:    rate.Every(interval),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		limiters: make(map[string]*actorLimiter),
	}
}

// Allow consumes one token for actorID.
func (r *RateLimiter) Allow(actorID string) bool {
	if r == nil {
		return true
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(now)
	l, ok := r.limiters[actorID]
	if !ok {
		l = &actorLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[actorID] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// sweep drops buckets idle long enough to have refilled.
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.sweptAt) < r.idle {
		return
	}
	r.sweptAt = now
	for id, l := range r.limiters {
		if now.Sub(l.lastSeen) >= r.idle {
			delete(r.limiters, id)
		}
	}
}

// Tracked returns the number of actors with a live bucket.
func (r *RateLimiter) Tracked() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// Check returns the limiter as a dispatch check. A nil limiter yields nil.
func (r *RateLimiter) Check() slash.Check {
	if r == nil {
		return nil
	}
	return func(c *slash.Context) bool {
		if r.Allow(c.Event().ActorID) {
			return true
		}
		_ = c.ReplyEphemeral(c.T("check.rate_limited"))
		return false
	}
}
