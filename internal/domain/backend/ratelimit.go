package backend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultBucket = "default"

// RateLimiter is a token bucket limiter keyed by API path prefix.
// Buckets are shared by every seller in the process, so one busy seller
// slows the others down; the limits protect the backend, not fairness
// between sellers.
type RateLimiter struct {
	config   RateLimitConfig
	prefixes []string // longest first

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	DefaultRPS   float64
	DefaultBurst int
	PathLimits   map[string]PathLimit
}

// PathLimit is the limit for one path prefix.
type PathLimit struct {
	RPS   float64
	Burst int
}

// DefaultRateLimitConfig keeps dashboard traffic well below what the backend tolerates.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		DefaultRPS:   10,
		DefaultBurst: 20,
		PathLimits: map[string]PathLimit{
			"/api/crop/dashboard/": {RPS: 5, Burst: 10},
			"/api/account/":        {RPS: 5, Burst: 10},
		},
	}
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

func newTokenBucket(rps float64, burst int) *tokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rps,
		lastRefill: time.Now(),
	}
}

// take removes a token and returns zero, or returns how long to wait for one.
// A reserved token is consumed even when the caller has to wait for it.
func (tb *tokenBucket) take(now time.Time) time.Duration {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.refillRate
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	tb.tokens--
	if tb.tokens >= 0 {
		return 0
	}
	if tb.refillRate <= 0 {
		return time.Second
	}
	return time.Duration(-tb.tokens / tb.refillRate * float64(time.Second))
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	prefixes := make([]string, 0, len(config.PathLimits))
	for prefix := range config.PathLimits {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	return &RateLimiter{
		config:   config,
		prefixes: prefixes,
		buckets:  make(map[string]*tokenBucket),
	}
}

// Wait blocks until a request for path may be sent.
func (rl *RateLimiter) Wait(ctx context.Context, path string) error {
	if rl == nil {
		return nil
	}

	rl.mu.Lock()
	wait := rl.bucket(path).take(time.Now())
	rl.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// bucketKey returns the longest configured prefix of path.
func (rl *RateLimiter) bucketKey(path string) string {
	for _, prefix := range rl.prefixes {
		if strings.HasPrefix(path, prefix) {
			return prefix
		}
	}
	return defaultBucket
}

// bucket must be called with rl.mu held.
func (rl *RateLimiter) bucket(path string) *tokenBucket {
	key := rl.bucketKey(path)
	if b, ok := rl.buckets[key]; ok {
		return b
	}

	rps, burst := rl.config.DefaultRPS, rl.config.DefaultBurst
	if limit, ok := rl.config.PathLimits[key]; ok {
		rps, burst = limit.RPS, limit.Burst
	}
	b := newTokenBucket(rps, burst)
	rl.buckets[key] = b
	return b
}
