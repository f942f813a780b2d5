// Package ratelimit implements the per-provider token buckets that gate
// every outbound marketplace API call.
//
// Each provider gets one Bucket for the life of the process, constructed
// at startup and injected into its client. The bucket refills
// continuously at a fixed rate and admission deducts exactly one token,
// sleeping first when the balance is short.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Bucket is a token bucket with fractional balance. All mutation happens
// under the mutex; the refill-then-deduct sequence is never observable
// half-done by a concurrent caller.
type Bucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	last       time.Time

	nowFunc   func() time.Time
	sleepFunc func(context.Context, time.Duration) error
}

// Option configures the Bucket.
type Option func(*Bucket)

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(b *Bucket) {
		b.nowFunc = f
	}
}

// WithSleepFunc overrides the sleep primitive for testing.
func WithSleepFunc(f func(context.Context, time.Duration) error) Option {
	return func(b *Bucket) {
		b.sleepFunc = f
	}
}

// New creates a full bucket holding capacity tokens that refills at
// refillPerSecond.
func New(capacity, refillPerSecond float64, opts ...Option) *Bucket {
	b := &Bucket{
		capacity:   capacity,
		refillRate: refillPerSecond,
		tokens:     capacity,
		nowFunc:    time.Now,
		sleepFunc:  sleepCtx,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.last = b.nowFunc()
	return b
}

// Admit blocks until a token is available, then deducts one. The block
// is a single cooperative sleep sized by WaitTime, not a busy-wait.
// Returns early with the context error if ctx is canceled while waiting.
func (b *Bucket) Admit(ctx context.Context) error {
	b.mu.Lock()
	b.refillLocked()
	if b.tokens >= 1 {
		b.tokens--
		b.mu.Unlock()
		return nil
	}
	wait := b.waitLocked()
	b.mu.Unlock()

	if err := b.sleepFunc(ctx, wait); err != nil {
		return err
	}

	// Refill over the slept interval is deterministic, so exactly one
	// token is owed; deduct without re-checking. A concurrent admit can
	// push the balance briefly negative, which only lengthens the waits
	// computed after it.
	b.mu.Lock()
	b.refillLocked()
	b.tokens--
	b.mu.Unlock()
	return nil
}

// CanAdmitNow reports whether a token is available without waiting.
func (b *Bucket) CanAdmitNow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens >= 1
}

// WaitTime returns how long a caller would sleep before admission, zero
// when a token is already available.
func (b *Bucket) WaitTime() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.waitLocked()
}

// Tokens returns the current token balance.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

// Capacity returns the configured bucket capacity.
func (b *Bucket) Capacity() float64 {
	return b.capacity
}

// Rate returns the refill rate in tokens per second.
func (b *Bucket) Rate() float64 {
	return b.refillRate
}

func (b *Bucket) refillLocked() {
	now := b.nowFunc()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillRate)
	}
	b.last = now
}

func (b *Bucket) waitLocked() time.Duration {
	if b.tokens >= 1 {
		return 0
	}
	ms := math.Ceil((1 - b.tokens) / b.refillRate * 1000)
	return time.Duration(ms) * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
