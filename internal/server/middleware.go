package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roi/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roi/internal/observability/metrics"
	"github.com/smallbiznis/roi/internal/ratelimit"
	"go.uber.org/zap"
)

const contentSecurityPolicy = "default-src 'self'; " +
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
	"font-src 'self' https://fonts.gstatic.com; " +
	"script-src 'self'; " +
	"img-src 'self' data:; " +
	"form-action 'self'; " +
	"connect-src 'self'"

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, X-Requested-With, X-Request-Id")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimit budgets requests per client IP under policy.
func RateLimit(limiter ratelimit.Limiter, policy ratelimit.Policy, metrics *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		res, err := limiter.Allow(ctx, policy, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("rate limit check failed",
				zap.String("policy", policy.Name),
				zap.Error(err),
			)
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed {
			c.Next()
			return
		}

		logger.FromContext(ctx).Warn("rate limit exceeded",
			zap.String("policy", policy.Name),
			zap.String("endpoint", endpoint),
			logger.Email(c.Query("email")),
		)
		metrics.RecordRateLimitDenied(ctx, endpoint)

		retryAfter := int(res.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
			Type:  "rate_limited",
			Error: policy.Message,
		})
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
