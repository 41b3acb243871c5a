package correlate

import (
	"context"
	"math"
	"sync"
	"time"
)

// tokenBucket is a simple thread-safe token bucket. The engine multiplexes
// every logical query onto one store connection, so a single global bucket
// is enough to keep a deep run from flooding it.
type tokenBucket struct {
	rate float64
	cap  float64

	mu   sync.Mutex
	tok  float64
	last time.Time
}

// newTokenBucket returns nil when no rate is configured; a nil bucket never
// delays callers.
func newTokenBucket(maxQPS int) *tokenBucket {
	if maxQPS <= 0 {
		return nil
	}
	capacity := maxQPS / 4
	if capacity <= 0 {
		capacity = maxQPS
	}
	return &tokenBucket{rate: float64(maxQPS), cap: float64(capacity), last: time.Now()}
}

// reserve reports how long the caller must wait before issuing one query.
func (b *tokenBucket) reserve() time.Duration {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tok = math.Min(b.cap, b.tok+b.rate*elapsed)
		b.last = now
	}
	if b.tok >= 1 {
		b.tok--
		return 0
	}
	deficit := 1 - b.tok
	// keep last pegged to the observation time so the next caller can
	// accumulate freshly generated tokens based on real elapsed time.
	b.last = now
	return time.Duration(deficit / b.rate * float64(time.Second))
}

// wait blocks until a query slot is available or the context ends.
func (b *tokenBucket) wait(ctx context.Context) error {
	for {
		delay := b.reserve()
		if delay <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
