package observability

import (
	"github.com/smallbiznis/roi/internal/observability/logger"
	"github.com/smallbiznis/roi/internal/observability/metrics"
	"github.com/smallbiznis/roi/internal/observability/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		NewConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(func(trace.TracerProvider) {}),
)
