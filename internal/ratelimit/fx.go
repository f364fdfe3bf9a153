package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roi/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepInterval = 5 * time.Minute

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Redis     *redis.Client `optional:"true"`
	Clock     clock.Clock
	Log       *zap.Logger
}

// NewLimiter prefers the shared Redis bucket and falls back to process memory.
func NewLimiter(p Params) Limiter {
	log := p.Log.Named("ratelimit")
	if p.Redis != nil {
		log.Info("using redis token bucket")
		return NewTokenBucket(p.Redis)
	}

	mem := NewMemoryLimiter(p.Clock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if n := mem.Sweep(); n > 0 {
							log.Debug("swept idle rate limit buckets", zap.Int("count", n))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
	log.Info("using in-memory rate limiter")
	return mem
}
