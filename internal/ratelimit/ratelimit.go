package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter sleeps a uniformly-random duration within [min, max] on every
// Wait. Plain politeness pacing between page visits, no adaptive backoff.
type Limiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	mu       sync.Mutex
}

func New(minDelay, maxDelay time.Duration) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	delay := l.delay()
	if delay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (l *Limiter) SetDelay(min, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.minDelay = min
	l.maxDelay = max
	if l.maxDelay < l.minDelay {
		l.maxDelay = l.minDelay
	}
}

func (l *Limiter) delay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.minDelay == l.maxDelay {
		return l.minDelay
	}

	// Closed interval: max itself must be reachable.
	delta := l.maxDelay - l.minDelay
	return l.minDelay + time.Duration(rand.Int63n(int64(delta)+1))
}
