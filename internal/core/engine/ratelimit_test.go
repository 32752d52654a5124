package engine

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewRateLimiterRejectsZeroBudget(t *testing.T) {
	_, err := NewRateLimiter(0, time.Hour)
	require.ErrorIs(t, err, ErrInvalidBudget)

	_, err = NewRateLimiter(10, 0)
	require.ErrorIs(t, err, ErrInvalidBudget)

	limiter, err := NewRateLimiter(DefaultMaxRequests, DefaultWindow)
	require.NoError(t, err)
	require.Equal(t, 5000, limiter.MaxRequests())
	require.Equal(t, time.Hour, limiter.Window())
}

func TestDefaultClockKeepsMonotonicReading(t *testing.T) {
	limiter, err := NewRateLimiter(2, time.Minute)
	require.NoError(t, err)

	require.True(t, limiter.TryAdmit())
	// Time.String appends the monotonic reading as "m=..."
	require.Contains(t, limiter.admitted[0].String(), "m=")

	snapshot := limiter.Snapshot()
	require.Equal(t, 1, snapshot.Used)
	require.Equal(t, 2, snapshot.Limit)
	require.Equal(t, time.UTC, snapshot.GeneratedAt.Location())
	require.NotNil(t, snapshot.Oldest)
	require.Equal(t, time.UTC, snapshot.Oldest.Location())
	require.NotContains(t, snapshot.GeneratedAt.String(), "m=")
}

func TestTryAdmitWindow(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewRateLimiter(2, 10*time.Second)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	require.True(t, limiter.TryAdmit())
	require.True(t, limiter.TryAdmit())
	require.False(t, limiter.TryAdmit())

	clock.Advance(9 * time.Second)
	require.False(t, limiter.TryAdmit())

	// age == window is stale
	clock.Advance(time.Second)
	require.True(t, limiter.TryAdmit())
	require.True(t, limiter.TryAdmit())
	require.False(t, limiter.TryAdmit())
}

func TestTryAdmitNeverExceedsBudgetInAnyWindow(t *testing.T) {
	const (
		maxRequests = 5
		window      = time.Minute
	)

	clock := newFakeClock()
	limiter, err := NewRateLimiter(maxRequests, window)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	rng := rand.New(rand.NewSource(42))
	var admitted []time.Time
	for i := 0; i < 2000; i++ {
		clock.Advance(time.Duration(rng.Intn(4000)) * time.Millisecond)
		if limiter.TryAdmit() {
			admitted = append(admitted, clock.Now())
		}
	}
	require.NotEmpty(t, admitted)

	for i, start := range admitted {
		count := 0
		for _, ts := range admitted[i:] {
			if ts.Sub(start) >= window {
				break
			}
			count++
		}
		require.LessOrEqual(t, count, maxRequests, "window starting at %s", start)
	}
}

func TestAcquireWaitsForOldestToAgeOut(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewRateLimiter(2, 10*time.Second)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	var sleeps []time.Duration
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		clock.Advance(d)
		return nil
	}

	ctx := context.Background()
	waited, err := limiter.Acquire(ctx)
	require.NoError(t, err)
	require.Zero(t, waited)

	clock.Advance(3 * time.Second)
	waited, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	require.Zero(t, waited)
	require.Empty(t, sleeps)

	waited, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{8 * time.Second}, sleeps)
	require.Equal(t, 8*time.Second, waited)

	snapshot := limiter.Snapshot()
	require.Equal(t, 2, snapshot.Used)
}

func TestAcquireRealClockShortWindow(t *testing.T) {
	limiter, err := NewRateLimiter(2, 50*time.Millisecond)
	require.NoError(t, err)
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		// collapse the one second slack so the test stays fast
		timer := time.NewTimer(d - admissionSlack + 5*time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}

	ctx := context.Background()
	start := time.Now()
	_, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	_, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 40*time.Millisecond)

	_, err = limiter.Acquire(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestAcquireCancelledDoesNotAdmit(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewRateLimiter(1, time.Hour)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	require.True(t, limiter.TryAdmit())

	ctx, cancel := context.WithCancel(context.Background())
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	_, err = limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, limiter.Snapshot().Used)

	_, err = limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, limiter.Snapshot().Used)
}

func TestAcquireDefaultSleepHonoursDeadline(t *testing.T) {
	limiter, err := NewRateLimiter(1, time.Hour)
	require.NoError(t, err)
	require.True(t, limiter.TryAdmit())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = limiter.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, limiter.Snapshot().Used)
}

func TestAcquireConcurrentAdmitsExactlyBudgetThenDrains(t *testing.T) {
	const (
		maxRequests = 3
		callers     = 10
	)

	clock := newFakeClock()
	limiter, err := NewRateLimiter(maxRequests, time.Hour)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	parked := make(chan struct{}, callers)
	release := make(chan struct{})
	var releasedFlag atomic.Bool
	limiter.Sleep = func(ctx context.Context, d time.Duration) error {
		if !releasedFlag.Load() {
			parked <- struct{}{}
			<-release
		}
		clock.Advance(d)
		return nil
	}

	var (
		admitted atomic.Int32
		wg       sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := limiter.Acquire(context.Background())
			if err == nil {
				admitted.Add(1)
			}
		}()
	}

	for i := 0; i < callers-maxRequests; i++ {
		select {
		case <-parked:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d callers parked", i)
		}
	}
	require.Equal(t, int32(maxRequests), admitted.Load())
	require.Equal(t, maxRequests, limiter.Snapshot().Used)

	releasedFlag.Store(true)
	close(release)
	wg.Wait()

	require.Equal(t, int32(callers), admitted.Load())
	require.LessOrEqual(t, limiter.Snapshot().Used, maxRequests)
}

func TestSnapshotReportsNextSlot(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewRateLimiter(1, time.Minute)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	snapshot := limiter.Snapshot()
	require.Zero(t, snapshot.Used)
	require.Nil(t, snapshot.Oldest)
	require.Zero(t, snapshot.NextSlotIn)

	require.True(t, limiter.TryAdmit())
	clock.Advance(20 * time.Second)

	snapshot = limiter.Snapshot()
	require.Equal(t, 1, snapshot.Used)
	require.NotNil(t, snapshot.Oldest)
	require.Equal(t, 41*time.Second, snapshot.NextSlotIn)
}

func TestWaitClampedWhenClockMovesBackwards(t *testing.T) {
	clock := newFakeClock()
	limiter, err := NewRateLimiter(1, time.Second)
	require.NoError(t, err)
	limiter.Clock = clock.Now

	require.True(t, limiter.TryAdmit())
	clock.Advance(-10 * time.Second)

	admitted, wait := limiter.tryAdmit()
	require.False(t, admitted)
	require.GreaterOrEqual(t, wait, minAdmissionWait)
}
