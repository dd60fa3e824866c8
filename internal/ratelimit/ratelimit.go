// Package ratelimit throttles repeated requests per key with token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter holds one token bucket per key. All buckets share the same rate.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rpm     int
	now     func() time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// New creates a limiter allowing rpm requests per minute per key, with bursts
// up to rpm. rpm <= 0 disables limiting.
func New(rpm int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rpm:     rpm,
		now:     time.Now,
	}
}

func (l *Limiter) refillRate() float64 {
	return float64(l.rpm) / 60.0
}

// refill must be called with l.mu held.
func (l *Limiter) refill(key string) *bucket {
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.rpm), lastRefill: now}
		l.buckets[key] = b
		return b
	}
	b.tokens += now.Sub(b.lastRefill).Seconds() * l.refillRate()
	if b.tokens > float64(l.rpm) {
		b.tokens = float64(l.rpm)
	}
	b.lastRefill = now
	return b
}

// Allow takes a token from key's bucket and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.rpm <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns the whole seconds until key's next token, or 0.
func (l *Limiter) RetryAfter(key string) int {
	if l == nil || l.rpm <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || b.tokens >= 1 {
		return 0
	}
	return int((1.0-b.tokens)/l.refillRate()) + 1
}

// Cleanup drops buckets idle for longer than maxAge.
func (l *Limiter) Cleanup(maxAge time.Duration) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxAge)
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
