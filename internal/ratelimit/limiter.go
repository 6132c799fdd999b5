// Package ratelimit provides the sliding-window rate limiter used in front
// of every external collaborator call. Each collaborator gets its own
// Limiter instance because limits differ between APIs.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultBuffer is the safety margin added when a call must wait for the
// oldest in-window start to expire. External services measure windows on
// their own clocks, so releasing exactly on the boundary risks a 429.
const DefaultBuffer = 50 * time.Millisecond

// Limiter allows at most n call starts within any trailing window.
//
// A slot is consumed when a call starts, not when it completes: external
// services bill on request issuance, so a call that fails still occupied
// its slot. Waiters are released in arrival order.
type Limiter struct {
	mu     sync.Mutex
	n      int
	window time.Duration
	buffer time.Duration
	starts []time.Time // reserved start times, ascending

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a limiter allowing n starts per window.
func New(n int, window time.Duration) *Limiter {
	return &Limiter{
		n:      n,
		window: window,
		buffer: DefaultBuffer,
		now:    time.Now,
	}
}

// Wait blocks until a call may start without exceeding the limit.
// Returns early with the context error if ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	start := l.reserve()

	delay := time.Until(start)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute waits for a slot and then runs task. The slot is held regardless
// of whether task returns an error.
func (l *Limiter) Execute(ctx context.Context, task func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return task(ctx)
}

// reserve assigns the next permissible start time and records it.
// Reservation order is arrival order, which gives FIFO fairness.
func (l *Limiter) reserve() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Drop starts that can no longer constrain any future reservation.
	cutoff := now.Add(-l.window)
	for len(l.starts) > 0 && l.starts[0].Before(cutoff) {
		l.starts = l.starts[1:]
	}

	start := now
	if len(l.starts) >= l.n {
		// The n-th most recent reserved start must exit the window
		// before this call may begin.
		oldest := l.starts[len(l.starts)-l.n]
		if earliest := oldest.Add(l.window + l.buffer); earliest.After(start) {
			start = earliest
		}
	}

	l.starts = append(l.starts, start)
	return start
}

// Pending returns the number of starts currently tracked. Used by tests.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.starts)
}
