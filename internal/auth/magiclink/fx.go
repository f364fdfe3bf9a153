package magiclink

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/roi/internal/clock"
	"github.com/smallbiznis/roi/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const cleanupInterval = 5 * time.Minute

var Module = fx.Module("auth.magiclink",
	fx.Provide(
		NewStore,
		func(m *email.Mailer) Sender { return m },
		NewService,
	),
	fx.Invoke(startCleanup),
)

type StoreParams struct {
	fx.In

	Redis *redis.Client `optional:"true"`
	Clock clock.Clock
}

func NewStore(p StoreParams) Store {
	if p.Redis != nil {
		return NewRedisStore(p.Redis)
	}
	return NewMemoryStore(p.Clock)
}

func startCleanup(lc fx.Lifecycle, svc *Service, log *zap.Logger) {
	log = log.Named("magiclink.cleanup")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cleanupInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if _, err := svc.Cleanup(ctx); err != nil {
							log.Warn("magic link cleanup failed", zap.Error(err))
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
}
