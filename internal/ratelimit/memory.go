package ratelimit

import (
	"context"
	"time"

	"github.com/smallbiznis/roi/internal/cache"
	"github.com/smallbiznis/roi/internal/clock"
	"golang.org/x/time/rate"
)

// MemoryLimiter keeps one token bucket per policy and key in process memory.
// An idle bucket is forgotten after its policy window.
type MemoryLimiter struct {
	clock   clock.Clock
	buckets *cache.TTLCache[string, *rate.Limiter]
}

func NewMemoryLimiter(c clock.Clock) *MemoryLimiter {
	return &MemoryLimiter{
		clock:   c,
		buckets: cache.NewTTLCacheWithClock[string, *rate.Limiter](c.Now),
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, policy Policy, key string) (*RateLimitResult, error) {
	if err := policy.validate(); err != nil {
		return &RateLimitResult{Allowed: false}, err
	}
	if key == "" {
		return &RateLimitResult{Allowed: false}, ErrEmptyKey
	}

	now := m.clock.Now()
	bucket := m.buckets.GetOrSet(bucketKey(policy, key), func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(policy.RatePerSecond()), policy.Limit)
	}, policy.Window)

	reservation := bucket.ReserveN(now, 1)
	if !reservation.OK() {
		return &RateLimitResult{Allowed: false, Limit: policy.Limit}, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &RateLimitResult{
			Allowed:    false,
			Limit:      policy.Limit,
			ResetTime:  now.Add(delay),
			RetryAfter: delay,
		}, nil
	}

	remaining := int(bucket.TokensAt(now))
	return &RateLimitResult{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: max(0, remaining),
		ResetTime: now.Add(time.Duration(float64(policy.Limit-remaining) / policy.RatePerSecond() * float64(time.Second))),
	}, nil
}

// Sweep drops idle buckets.
func (m *MemoryLimiter) Sweep() int {
	return m.buckets.Sweep(nil)
}
