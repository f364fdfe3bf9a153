package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/roi/internal/observability/context"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware tags the request context with a request id and the hashed
// requester email, then writes one access line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID(c))
		if email := c.Query("email"); email != "" {
			ctx = obscontext.WithEmailHash(ctx, HashEmail(email))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		route := RouteLabel(c)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
			zap.String("ip", c.ClientIP()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, errorFields(cfg, lastErr.Err)...)
		}

		logRequest(FromContext(c.Request.Context()), route, status, fields)
	}
}

// RouteLabel names the matched route; unmatched paths collapse into one label
// so static page hits do not explode log cardinality.
func RouteLabel(c *gin.Context) string {
	if route := strings.TrimSpace(c.FullPath()); route != "" {
		return route
	}
	return "static"
}

func requestID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("request_id", id)
	c.Header(requestIDHeader, id)
	return id
}

func errorFields(cfg MiddlewareConfig, err error) []zap.Field {
	var errType, errCode string
	if cfg.ErrorClassifier != nil {
		errType, errCode = cfg.ErrorClassifier(err)
	}
	fields := []zap.Field{
		zap.String("error_type", errType),
		zap.String("error_code", errCode),
	}
	if cfg.Debug {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

func logRequest(log *zap.Logger, route string, status int, fields []zap.Field) {
	if log == nil {
		return
	}

	switch {
	case route == "/metrics" || route == "/health":
		log.Debug("http_request", fields...)
	case status >= http.StatusInternalServerError:
		log.Error("http_request", fields...)
	case status == http.StatusTooManyRequests || status == http.StatusUnauthorized:
		log.Warn("http_request", fields...)
	default:
		log.Info("http_request", fields...)
	}
}
