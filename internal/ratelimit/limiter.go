// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
//
// A simulation can run up to 100,000 trials, so each tool call is CPU bound;
// the limits keep a misbehaving client from pinning the host.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrRateLimited is returned by CheckLimit when a tool has no tokens left.
var ErrRateLimited = errors.New("rate limit exceeded")

// Tool names with configured limits.
const (
	ToolSimulate  = "countconf_simulate"
	ToolHistogram = "countconf_histogram"
)

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// refill returns the bucket for key with tokens topped up to now.
// Caller must hold l.mu.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}
	return b
}

// Allow checks if a request for the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter reports how long until key has a token available.
// Zero means a request would be allowed now. A limiter with zero rate that
// has run dry never refills and reports a negative duration.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= 1.0 {
		return 0
	}
	if l.rate <= 0 {
		return -1
	}
	secs := (1.0 - b.tokens) / l.rate
	return time.Duration(math.Ceil(secs * float64(time.Second)))
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolSimulate:  NewLimiter(20.0/60.0, 3), // 20/minute, burst 3
		ToolHistogram: NewLimiter(10.0/60.0, 2), // 10/minute, burst 2
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error wrapping ErrRateLimited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil // No limiter configured = no limit
	}

	if limiter.Allow(toolName) {
		return nil
	}

	if wait := limiter.RetryAfter(toolName); wait > 0 {
		return fmt.Errorf("%w for %s, retry in %s", ErrRateLimited, toolName, wait.Round(time.Second))
	}
	return fmt.Errorf("%w for %s", ErrRateLimited, toolName)
}
