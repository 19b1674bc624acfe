package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interval enforces a minimum gap between consecutive requests. The first
// request is never delayed.
type Interval struct {
	gap  time.Duration
	last time.Time
	mu   sync.Mutex
}

// NewInterval creates a limiter that spaces requests at least gap apart
func NewInterval(gap time.Duration) *Interval {
	return &Interval{gap: gap}
}

// Allow reports whether a request may proceed now and records it if so
func (iv *Interval) Allow() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	now := time.Now()
	if !iv.last.IsZero() && now.Sub(iv.last) < iv.gap {
		return false
	}
	iv.last = now
	return true
}

// Wait blocks until gap has elapsed since the previous request
func (iv *Interval) Wait(ctx context.Context) error {
	for !iv.Allow() {
		iv.mu.Lock()
		remaining := iv.gap - time.Since(iv.last)
		iv.mu.Unlock()

		if err := sleep(ctx, remaining); err != nil {
			return err
		}
	}
	return nil
}

// Reset forgets the previous request
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	iv.last = time.Time{}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		timeToWait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				timeToWait = d
			}
		}
		sw.mu.Unlock()

		if err := sleep(ctx, timeToWait); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// Multi waits on every limiter in order
type Multi []Limiter

// Allow consumes from each limiter until one refuses
func (m Multi) Allow() bool {
	for _, l := range m {
		if !l.Allow() {
			return false
		}
	}
	return true
}

func (m Multi) Wait(ctx context.Context) error {
	for _, l := range m {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Reset() {
	for _, l := range m {
		l.Reset()
	}
}

// ForPages builds the limiter used between review page requests: a fixed
// inter-page delay, plus a per-minute budget when requestsPerMinute > 0.
func ForPages(pageDelay time.Duration, requestsPerMinute int) Limiter {
	limiters := Multi{NewInterval(pageDelay)}
	if requestsPerMinute > 0 {
		limiters = append(limiters, NewSlidingWindow(requestsPerMinute, time.Minute))
	}
	if len(limiters) == 1 {
		return limiters[0]
	}
	return limiters
}
