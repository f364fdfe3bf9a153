package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Policy is a request budget per key over a window.
type Policy struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

var (
	PolicyROI = Policy{
		Name:    "roi",
		Limit:   10,
		Window:  15 * time.Minute,
		Message: "Too many ROI requests. Please try again in 15 minutes.",
	}
	PolicyMagicLink = Policy{
		Name:    "magic_link",
		Limit:   3,
		Window:  time.Minute,
		Message: "Too many magic link requests. Please try again in 1 minute.",
	}
	PolicyGeneral = Policy{
		Name:    "general",
		Limit:   100,
		Window:  15 * time.Minute,
		Message: "Too many requests. Please try again later.",
	}
)

var (
	ErrInvalidPolicy = errors.New("rate limit policy must have a positive limit and window")
	ErrEmptyKey      = errors.New("rate limiter key is empty")
)

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter decides whether one more request fits a policy for a key.
type Limiter interface {
	Allow(ctx context.Context, policy Policy, key string) (*RateLimitResult, error)
}

// RatePerSecond is the refill rate that spreads Limit evenly over Window.
func (p Policy) RatePerSecond() float64 {
	return float64(p.Limit) / p.Window.Seconds()
}

func (p Policy) validate() error {
	if p.Limit <= 0 || p.Window <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

func bucketKey(policy Policy, key string) string {
	return "ratelimit:" + policy.Name + ":" + key
}
