package ratelimit

import (
	"sync"
	"time"
)

// Config stores token bucket settings for the claim route. Rate is the
// steady refill in tokens per second, Burst the bucket capacity. Idle
// buckets older than TTL are swept; MaxBuckets bounds memory when many
// distinct clients hit the route (new clients past the cap are denied).
type Config struct {
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// TokenBucketLimiter keeps one token bucket per client key. A claim
// request spends one token; an empty bucket means 429 upstream.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu        sync.RWMutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	refilled time.Time
	touched  time.Time
}

// NewTokenBucketLimiter builds a limiter. A nil clock falls back to
// wall time; non-positive rate or burst degrade to the minimum working
// values rather than a limiter that blocks everything.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{cfg: cfg, clock: clock, buckets: make(map[string]*bucket)}
}

// Allow reports whether the key may proceed, spending one token.
func (l *TokenBucketLimiter) Allow(key string) bool {
	now := l.clock.Now()
	l.sweep(now)

	b := l.bucket(key, now)
	if b == nil {
		// Bucket cap reached; unknown clients wait for the sweep.
		return false
	}
	return b.take(now, l.cfg.Rate, float64(l.cfg.Burst))
}

// bucket returns the key's bucket, creating it full when the cap allows.
func (l *TokenBucketLimiter) bucket(key string, now time.Time) *bucket {
	l.mu.RLock()
	b := l.buckets[key]
	l.mu.RUnlock()
	if b != nil {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b = l.buckets[key]; b != nil {
		return b
	}
	if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
		return nil
	}
	b = &bucket{tokens: float64(l.cfg.Burst), refilled: now, touched: now}
	l.buckets[key] = b
	return b
}

// take refills for the elapsed time, capped at burst, then spends one
// token if a whole one is available.
func (b *bucket) take(now time.Time, rate, burst float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if dt := now.Sub(b.refilled); dt > 0 {
		b.tokens += dt.Seconds() * rate
		if b.tokens > burst {
			b.tokens = burst
		}
		b.refilled = now
	}
	b.touched = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle past the TTL. It runs at most once per sweep
// interval so the map scan stays off the hot path.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	if l.cfg.TTL <= 0 {
		return
	}

	interval := time.Minute
	if half := l.cfg.TTL / 2; half > interval {
		interval = half
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < interval {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		b.mu.Lock()
		idle := now.Sub(b.touched)
		b.mu.Unlock()
		if idle > l.cfg.TTL {
			delete(l.buckets, key)
		}
	}
}
