package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roi/internal/auth/magiclink"
	billingdomain "github.com/smallbiznis/roi/internal/billing/domain"
	"github.com/smallbiznis/roi/internal/providers/email"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
)

// errorResponse keeps the flat shape the portal pages read: data.error.
type errorResponse struct {
	Error   string                `json:"error"`
	Type    string                `json:"type,omitempty"`
	Clients []roidomain.Candidate `json:"clients,omitempty"`
}

var (
	ErrEmailRequired      = errors.New("email_required")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrROIUnavailable     = errors.New("roi_unavailable")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrInternal           = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorResponse{
			Type:  "internal_error",
			Error: "Internal server error",
		}
	case errors.Is(err, ErrEmailRequired):
		return http.StatusBadRequest, errorResponse{
			Type:  "validation_error",
			Error: "Email parameter is required",
		}
	case errors.Is(err, ErrInvalidEmail),
		errors.Is(err, magiclink.ErrInvalidEmail),
		errors.Is(err, roidomain.ErrInvalidEmail):
		return http.StatusBadRequest, errorResponse{
			Type:  "validation_error",
			Error: "Valid email address is required",
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{
			Type:  "unauthorized",
			Error: "Valid authentication token is required",
		}
	case errors.Is(err, billingdomain.ErrAuthentication):
		return http.StatusUnauthorized, errorResponse{
			Type:  "upstream_authentication_failed",
			Error: "Invoice Ninja API authentication failed. Please contact administrator.",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorResponse{
			Type:  "not_found",
			Error: "Not found",
		}
	case errors.Is(err, ErrROIUnavailable):
		return http.StatusInternalServerError, errorResponse{
			Type:  "upstream_error",
			Error: "Failed to retrieve ROI data",
		}
	case errors.Is(err, email.ErrDeliveryFailed):
		return http.StatusInternalServerError, errorResponse{
			Type:  "email_delivery_failed",
			Error: "Failed to send access link",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, magiclink.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorResponse{
			Type:  "service_unavailable",
			Error: "Service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Type:  "internal_error",
			Error: "Internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger a type and code per error.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server", payload.Type
	default:
		return "client", payload.Type
	}
}
