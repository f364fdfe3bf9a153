package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartClientSpan opens a client span for an outbound call and injects propagation headers.
func StartClientSpan(ctx context.Context, name string, req *http.Request) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("roi/client").Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	if req != nil {
		InjectContext(ctx, propagation.HeaderCarrier(req.Header))
		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.path", req.URL.Path),
		)
	}
	return ctx, span
}

// EndClientSpan records the outcome of an outbound call.
func EndClientSpan(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(SafeError(err))
		span.SetStatus(codes.Error, "upstream error")
	}
	span.End()
}
