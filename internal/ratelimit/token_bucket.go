package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	ErrNotConfigured = errors.New("rate limiter not configured")
	ErrBadReply      = errors.New("invalid rate limit script reply")
)

// allowScript refills the bucket from the Redis clock, takes one token when
// available and reports how long the caller must wait otherwise.
//
// KEYS[1] bucket hash. ARGV: refill per ms, capacity.
// Reply: {allowed, tokens left, retry after ms, server time ms}.
const allowScript = `
local per_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now
if now > ts then
  tokens = math.min(capacity, tokens + (now - ts) * per_ms)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.ceil((1 - tokens) / per_ms)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], math.ceil(capacity / per_ms))

return {allowed, tostring(tokens), wait, now}
`

// TokenBucket is a Redis-backed limiter shared by every replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(allowScript),
	}
}

func (t *TokenBucket) Allow(ctx context.Context, policy Policy, key string) (*RateLimitResult, error) {
	denied := &RateLimitResult{Limit: policy.Limit}
	if t == nil || t.client == nil {
		return denied, ErrNotConfigured
	}
	if err := policy.validate(); err != nil {
		return denied, err
	}
	if key == "" {
		return denied, ErrEmptyKey
	}

	perMs := policy.RatePerSecond() / 1000
	raw, err := t.script.Run(ctx, t.client, []string{bucketKey(policy, key)}, perMs, policy.Limit).Slice()
	if err != nil {
		return denied, fmt.Errorf("rate limit %s: %w", policy.Name, err)
	}

	r, err := decodeReply(raw)
	if err != nil {
		return denied, err
	}

	retryAfter := time.Duration(r.waitMs) * time.Millisecond
	return &RateLimitResult{
		Allowed:    r.allowed,
		Limit:      policy.Limit,
		Remaining:  int(r.tokens),
		ResetTime:  time.UnixMilli(r.nowMs).Add(retryAfter),
		RetryAfter: retryAfter,
	}, nil
}

type scriptReply struct {
	allowed bool
	tokens  float64
	waitMs  int64
	nowMs   int64
}

func decodeReply(raw []interface{}) (scriptReply, error) {
	if len(raw) != 4 {
		return scriptReply{}, fmt.Errorf("%w: %d values", ErrBadReply, len(raw))
	}
	allowed, ok := raw[0].(int64)
	if !ok {
		return scriptReply{}, fmt.Errorf("%w: allowed flag %T", ErrBadReply, raw[0])
	}
	text, ok := raw[1].(string)
	if !ok {
		return scriptReply{}, fmt.Errorf("%w: tokens %T", ErrBadReply, raw[1])
	}
	tokens, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return scriptReply{}, fmt.Errorf("%w: tokens %q", ErrBadReply, text)
	}
	wait, ok := raw[2].(int64)
	if !ok {
		return scriptReply{}, fmt.Errorf("%w: wait %T", ErrBadReply, raw[2])
	}
	now, ok := raw[3].(int64)
	if !ok {
		return scriptReply{}, fmt.Errorf("%w: time %T", ErrBadReply, raw[3])
	}
	return scriptReply{allowed: allowed == 1, tokens: tokens, waitMs: wait, nowMs: now}, nil
}
