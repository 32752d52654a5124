package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultMaxRequests matches GitHub's authenticated REST budget.
	DefaultMaxRequests = 5000
	// DefaultWindow is the budget window GitHub resets on.
	DefaultWindow = time.Hour

	// minAdmissionWait keeps a blocked caller from spinning when the clock
	// moves backwards or the oldest entry ages out between checks.
	minAdmissionWait = 10 * time.Millisecond
	admissionSlack   = time.Second
)

// ErrInvalidBudget is returned when a limiter is built with a budget that
// could never admit a request.
var ErrInvalidBudget = errors.New("rate limit budget must allow at least one request per positive window")

// RateLimiter is a sliding-window admission gate shared by every outbound
// GitHub call in the process. Bursts up to the budget are admitted
// back-to-back; after that callers block until the oldest admission ages
// out of the window. The budget is fixed at construction.
type RateLimiter struct {
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	admitted []time.Time
}

// AdmissionSnapshot reports the current window state.
type AdmissionSnapshot struct {
	Used        int           `json:"used"`
	Limit       int           `json:"limit"`
	Window      time.Duration `json:"window"`
	Oldest      *time.Time    `json:"oldest,omitempty"`
	NextSlotIn  time.Duration `json:"next_slot_in"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// NewRateLimiter validates the budget and returns a limiter.
func NewRateLimiter(maxRequests int, window time.Duration) (*RateLimiter, error) {
	if maxRequests <= 0 || window <= 0 {
		return nil, ErrInvalidBudget
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		admitted:    make([]time.Time, 0, min(maxRequests, 1024)),
	}, nil
}

// MaxRequests is the number of admissions allowed per window.
func (r *RateLimiter) MaxRequests() int { return r.maxRequests }

// Window is the sliding window length.
func (r *RateLimiter) Window() time.Duration { return r.window }

// TryAdmit records an admission and returns true when the window has room.
func (r *RateLimiter) TryAdmit() bool {
	admitted, _ := r.tryAdmit()
	return admitted
}

// Acquire blocks until a slot is admitted or ctx is done. It returns the
// total time spent waiting. A cancelled wait never consumes a slot.
func (r *RateLimiter) Acquire(ctx context.Context) (time.Duration, error) {
	if r == nil {
		return 0, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return waited, err
		}

		admitted, wait := r.tryAdmit()
		if admitted {
			return waited, nil
		}

		if err := r.sleep(ctx, wait); err != nil {
			return waited, err
		}
		waited += wait
	}
}

// Snapshot returns the pruned window state without admitting anything.
func (r *RateLimiter) Snapshot() AdmissionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	snapshot := AdmissionSnapshot{
		Used:        len(r.admitted),
		Limit:       r.maxRequests,
		Window:      r.window,
		GeneratedAt: now.UTC(),
	}
	if len(r.admitted) > 0 {
		oldest := r.admitted[0].UTC()
		snapshot.Oldest = &oldest
	}
	if len(r.admitted) >= r.maxRequests {
		snapshot.NextSlotIn = r.waitFor(now)
	}
	return snapshot
}

// tryAdmit prunes, admits when possible, and otherwise computes the wait
// under the same lock so the oldest entry cannot move underneath it.
func (r *RateLimiter) tryAdmit() (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	if len(r.admitted) < r.maxRequests {
		r.admitted = append(r.admitted, now)
		return true, 0
	}

	return false, r.waitFor(now)
}

// prune drops admissions whose age has reached the window. Entries are
// appended in clock order so the retained ones are a suffix.
func (r *RateLimiter) prune(now time.Time) {
	keep := 0
	for keep < len(r.admitted) && now.Sub(r.admitted[keep]) >= r.window {
		keep++
	}
	if keep == 0 {
		return
	}
	r.admitted = append(r.admitted[:0], r.admitted[keep:]...)
}

func (r *RateLimiter) waitFor(now time.Time) time.Duration {
	if len(r.admitted) == 0 {
		return admissionSlack
	}
	wait := r.window - now.Sub(r.admitted[0]) + admissionSlack
	if wait < minAdmissionWait {
		wait = minAdmissionWait
	}
	return wait
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	// keep the monotonic reading so wall clock steps cannot skew ages
	return time.Now()
}

func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
