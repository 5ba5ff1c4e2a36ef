// Package limits provides rate and connection limits for the live host.
package limits

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrRateLimitExceeded is returned when a key has used up its budget.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// KeyedLimiter is a token bucket per key.
type KeyedLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewKeyedLimiter allows perSecond operations per key with bursts of burst.
// A non-positive perSecond means no limit.
func NewKeyedLimiter(perSecond float64, burst int) *KeyedLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &KeyedLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (kl *KeyedLimiter) get(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	l, ok := kl.limiters[key]
	if !ok {
		l = rate.NewLimiter(kl.limit, kl.burst)
		kl.limiters[key] = l
	}
	return l
}

func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.get(key).Allow()
}

func (kl *KeyedLimiter) Forget(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	delete(kl.limiters, key)
}

// Len returns the number of keys with state.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}
