package observability

import (
	"strings"

	"github.com/smallbiznis/roi/internal/config"
	"github.com/smallbiznis/roi/internal/observability/logger"
	"github.com/smallbiznis/roi/internal/observability/metrics"
	"github.com/smallbiznis/roi/internal/observability/tracing"
)

// Config is the slice of application config the telemetry stack needs.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func NewConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "roi"
	}
	obs := cfg.Observability
	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             obs.LogLevel,
		LogFormat:            obs.LogFormat,
		OtelEnabled:          obs.OtelEnabled,
		OtelExporterEndpoint: obs.OtelEndpoint,
		OtelExporterProtocol: obs.OtelProtocol,
		OtelSamplingRatio:    obs.SamplingRatio,
	}
}

// Debug turns on error details in request logs.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func (c Config) Logger() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) Tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) Metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}
