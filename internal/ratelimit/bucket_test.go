package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclarke/listing-gateway/internal/ratelimit"
)

// fakeClock drives the bucket's time source and advances it whenever the
// bucket sleeps, so tests never actually wait.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	sleepE error
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sleepE != nil {
		return f.sleepE
	}
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
	return nil
}

func newBucket(capacity, rate float64, clock *fakeClock) *ratelimit.Bucket {
	return ratelimit.New(
		capacity, rate,
		ratelimit.WithNowFunc(clock.Now),
		ratelimit.WithSleepFunc(clock.Sleep),
	)
}

func TestBucket_FirstAdmitIsImmediate(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	b := newBucket(1, 1, clock)

	require.NoError(t, b.Admit(context.Background()))
	assert.Empty(t, clock.slept, "a full bucket must not sleep")
}

func TestBucket_ConsecutiveAdmitsPaceOut(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	b := newBucket(1, 1, clock)

	// 1-token capacity at 1 token/s: N admits cost at least N-1 seconds.
	const n = 4
	for range n {
		require.NoError(t, b.Admit(context.Background()))
	}

	var total time.Duration
	for _, d := range clock.slept {
		total += d
	}
	assert.GreaterOrEqual(t, total, (n-1)*time.Second)
}

func TestBucket_WaitTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		capacity float64
		rate     float64
		drain    int
		advance  time.Duration
		want     time.Duration
	}{
		{
			name:     "full bucket waits zero",
			capacity: 1,
			rate:     1,
			want:     0,
		},
		{
			name:     "empty bucket at 2/s waits half a second",
			capacity: 1,
			rate:     2,
			drain:    1,
			want:     500 * time.Millisecond,
		},
		{
			name:     "empty bucket at 1/s waits a full second",
			capacity: 1,
			rate:     1,
			drain:    1,
			want:     time.Second,
		},
		{
			name:     "partial refill shortens the wait",
			capacity: 1,
			rate:     1,
			drain:    1,
			advance:  400 * time.Millisecond,
			want:     600 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := newFakeClock()
			b := newBucket(tt.capacity, tt.rate, clock)

			for range tt.drain {
				require.NoError(t, b.Admit(context.Background()))
			}
			clock.Advance(tt.advance)

			assert.Equal(t, tt.want, b.WaitTime())
		})
	}
}

func TestBucket_CanAdmitNow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	b := newBucket(1, 1, clock)

	assert.True(t, b.CanAdmitNow())
	require.NoError(t, b.Admit(context.Background()))
	assert.False(t, b.CanAdmitNow())

	clock.Advance(time.Second)
	assert.True(t, b.CanAdmitNow())
}

func TestBucket_RefillCapsAtCapacity(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	b := newBucket(3, 1, clock)

	clock.Advance(time.Hour)
	assert.InDelta(t, 3.0, b.Tokens(), 1e-9)
}

func TestBucket_BurstThenPace(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	b := newBucket(5, 1, clock)

	// The burst drains without sleeping.
	for range 5 {
		require.NoError(t, b.Admit(context.Background()))
	}
	assert.Empty(t, clock.slept)

	// The sixth call pays the refill interval.
	require.NoError(t, b.Admit(context.Background()))
	require.Len(t, clock.slept, 1)
	assert.Equal(t, time.Second, clock.slept[0])
}

func TestBucket_AdmitContextCanceled(t *testing.T) {
	t.Parallel()

	// Real sleep primitive, canceled context: Admit must not hang.
	b := ratelimit.New(1, 0.001)
	require.NoError(t, b.Admit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Admit(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBucket_ConcurrentAdmitsNeverOverdraw(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	b := newBucket(2, 1000, clock)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Admit(context.Background())
		}()
	}
	wg.Wait()

	// However the goroutines interleave, the balance never exceeds
	// capacity afterwards.
	assert.LessOrEqual(t, b.Tokens(), b.Capacity())
}
