package ratelimit

import "time"

// Limiter decides per client key whether a claim request may pass.
type Limiter interface {
	Allow(key string) bool
}

// NopLimiter admits everything. Wired when rate limiting is switched
// off in configuration.
type NopLimiter struct{}

// Allow always admits.
func (NopLimiter) Allow(string) bool { return true }

// Clock abstracts time for the limiter so refill and sweep behavior is
// testable with a scripted clock.
type Clock interface {
	Now() time.Time
}

// RealClock reads wall time.
type RealClock struct{}

// Now returns the current wall time.
func (RealClock) Now() time.Time { return time.Now() }
