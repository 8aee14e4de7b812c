package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter is a non-blocking token bucket guarding bridge requests
type RateLimiter struct {
	mu          sync.Mutex
	tokens      int           // Current number of tokens available
	maxTokens   int           // Maximum number of tokens
	refillRate  time.Duration // Time between token refills
	lastRefill  time.Time     // Last time tokens were refilled
	minInterval time.Duration // Minimum time between requests
	lastRequest time.Time     // Last request time
	now         func() time.Time
}

// New creates a new rate limiter
// maxRequests: maximum number of requests allowed
// perDuration: time window for maxRequests (e.g., 60 requests per minute)
// minInterval: minimum time between requests, 0 disables the check
func New(maxRequests int, perDuration time.Duration, minInterval time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 60
	}
	if perDuration <= 0 {
		perDuration = time.Minute
	}
	if minInterval < 0 {
		minInterval = 0
	}

	refillRate := perDuration / time.Duration(maxRequests)
	if refillRate <= 0 {
		refillRate = time.Nanosecond
	}

	return &RateLimiter{
		tokens:      maxRequests,
		maxTokens:   maxRequests,
		refillRate:  refillRate,
		lastRefill:  time.Now(),
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Allow consumes a token if one is available without waiting
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	rl.refill(now)

	if rl.minInterval > 0 && !rl.lastRequest.IsZero() && now.Sub(rl.lastRequest) < rl.minInterval {
		return false
	}
	if rl.tokens <= 0 {
		return false
	}

	rl.tokens--
	rl.lastRequest = now
	return true
}

func (rl *RateLimiter) refill(now time.Time) {
	if rl.refillRate <= 0 {
		return
	}
	elapsed := now.Sub(rl.lastRefill)
	if elapsed <= 0 {
		return
	}
	tokensToAdd := int(elapsed / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+tokensToAdd)
		rl.lastRefill = rl.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}
}

func (rl *RateLimiter) clock() time.Time {
	if rl.now == nil {
		return time.Now()
	}
	return rl.now()
}
