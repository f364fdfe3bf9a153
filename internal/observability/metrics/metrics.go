package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	reports          metric.Int64Counter
	upstreamRequests metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	latency          *LatencyMetrics
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "roi"
	}
	meter := provider.Meter(name)

	reports, err := meter.Int64Counter("roi_reports_total")
	if err != nil {
		return nil, err
	}
	upstreamRequests, err := meter.Int64Counter("roi_upstream_requests_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("roi_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		reports:          reports,
		upstreamRequests: upstreamRequests,
		rateLimitDenied:  rateLimitDenied,
		latency:          Latency(),
	}, nil
}

// RecordReport counts a report request by outcome and observes its duration.
func (m *Metrics) RecordReport(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome = strings.TrimSpace(outcome)
	attrs := FilterAttributes(attribute.String("outcome", outcome))
	m.reports.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.latency.ObserveReport(outcome, duration)
}

// RecordUpstreamRequest counts a call to the invoicing platform.
func (m *Metrics) RecordUpstreamRequest(ctx context.Context, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	endpoint = strings.TrimSpace(endpoint)
	code := strconv.Itoa(status)
	attrs := FilterAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status_code", code),
	)
	m.upstreamRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.latency.ObserveUpstream(endpoint, code, duration)
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"status_code": {},
	"outcome":     {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
