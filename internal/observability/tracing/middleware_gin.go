package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/roi/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const serverTracerName = "roi/http"

// GinMiddleware opens a server span per request. It runs after the request
// logger so the span can carry the request id and hashed email.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(serverTracerName)
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		span.SetAttributes(SafeAttributes(
			attribute.String("request_id", obscontext.RequestIDFromContext(ctx)),
			attribute.String("email_hash", obscontext.EmailHashFromContext(ctx)),
		)...)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "static"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)

		switch {
		case status == http.StatusTooManyRequests:
			span.AddEvent("rate_limited")
		case status >= http.StatusInternalServerError:
			if lastErr := c.Errors.Last(); lastErr != nil {
				span.RecordError(SafeError(lastErr.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
