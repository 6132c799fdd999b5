package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLimiter_UnderLimit tests that calls within the limit run immediately.
func TestLimiter_UnderLimit(t *testing.T) {
	limiter := New(5, time.Second)
	ctx := context.Background()

	begin := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}

	assert.Less(t, time.Since(begin), 100*time.Millisecond)
}

// TestLimiter_Bound tests that 2N calls against N-per-window take at least
// one window, and that no trailing window ever holds more than N starts.
func TestLimiter_Bound(t *testing.T) {
	const (
		n      = 3
		window = 80 * time.Millisecond
	)

	limiter := New(n, window)
	limiter.buffer = 0 // exact boundaries for the trailing-window check
	ctx := context.Background()

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)

	begin := time.Now()
	for i := 0; i < 2*n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Execute(ctx, func(context.Context) error {
				mu.Lock()
				starts = append(starts, time.Now())
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(begin), window)

	// No trailing window may contain more than n starts. With starts
	// sorted, it is enough that starts k and k+n are at least a window
	// apart, modulo scheduling jitter.
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 0; i+n < len(starts); i++ {
		gap := starts[i+n].Sub(starts[i])
		assert.GreaterOrEqual(t, gap, window-10*time.Millisecond,
			"starts %d and %d too close", i, i+n)
	}
}

// TestLimiter_TaskErrorHoldsSlot tests that a failing task still consumes
// its slot.
func TestLimiter_TaskErrorHoldsSlot(t *testing.T) {
	limiter := New(2, time.Second)
	ctx := context.Background()

	failing := func(context.Context) error { return assert.AnError }

	require.ErrorIs(t, limiter.Execute(ctx, failing), assert.AnError)
	require.ErrorIs(t, limiter.Execute(ctx, failing), assert.AnError)

	assert.Equal(t, 2, limiter.Pending())
}

// TestLimiter_ContextCancelled tests that a cancelled wait returns the
// context error instead of blocking.
func TestLimiter_ContextCancelled(t *testing.T) {
	limiter := New(1, time.Hour)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	err := limiter.Wait(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestLimiter_FIFO tests that release times are assigned in arrival order,
// so the longest-waiting caller always proceeds first.
func TestLimiter_FIFO(t *testing.T) {
	limiter := New(1, 30*time.Millisecond)
	limiter.buffer = 0

	var starts []time.Time
	for i := 0; i < 4; i++ {
		starts = append(starts, limiter.reserve())
	}

	for i := 1; i < len(starts); i++ {
		assert.True(t, starts[i].After(starts[i-1]),
			"reservation %d not after %d", i, i-1)
	}
}
