package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrAcquireTimeout is returned when the caller's context expires before a
// grant fits inside the rate window. The limiter itself never rejects a
// request because of load alone.
var ErrAcquireTimeout = errors.New("rate limit acquire timeout")

// Limiter bounds outbound request rate with sliding-window accounting of past
// grant timestamps. A request is granted immediately while fewer than the
// effective budget of grants occurred within the trailing window; otherwise
// the caller blocks until the oldest grant rolls out of the window.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	grants []time.Time

	// Injectable for tests
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a limiter allowing floor(maxPerWindow * safetyFactor) grants
// per trailing window. A safety factor outside (0, 1] is treated as 1.
func New(maxPerWindow int, window time.Duration, safetyFactor float64) *Limiter {
	if safetyFactor <= 0 || safetyFactor > 1 {
		safetyFactor = 1
	}
	budget := int(math.Floor(float64(maxPerWindow) * safetyFactor))
	if budget < 1 {
		budget = 1
	}
	return &Limiter{
		max:    budget,
		window: window,
		now:    time.Now,
		after:  func(d time.Duration) <-chan time.Time { return time.After(d) },
	}
}

// Budget returns the effective number of grants per window.
func (l *Limiter) Budget() int { return l.max }

// Acquire blocks until a request slot is available or ctx is done. Context
// expiry surfaces as ErrAcquireTimeout so callers can skip the work for this
// cycle instead of failing hard.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.grants) < l.max {
			l.grants = append(l.grants, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.grants[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrAcquireTimeout, ctx.Err())
		case <-l.after(wait):
		}
	}
}

// prune drops grant timestamps that fell out of the trailing window.
// Caller must hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}
