package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roi/internal/observability/logger"
	roidomain "github.com/smallbiznis/roi/internal/roi/domain"
	"go.uber.org/zap"
)

// GetROI spends the access token and returns the client's report.
func (s *Server) GetROI(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	token := strings.TrimSpace(c.Query("token"))
	if email == "" {
		AbortWithError(c, ErrEmailRequired)
		return
	}

	ctx := c.Request.Context()
	log := logger.FromContext(ctx).With(logger.Email(email))

	if token == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	ok, err := s.access.Validate(ctx, token, email)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	log.Info("processing roi request")
	result, err := s.roiSvc.GetClientROI(ctx, email)
	if err != nil {
		log.Error("roi request failed", zap.Error(err))
		AbortWithError(c, fmt.Errorf("%w: %w", ErrROIUnavailable, err))
		return
	}

	switch result.Outcome {
	case roidomain.OutcomeSuccess:
		log.Info("roi request completed")
		c.JSON(http.StatusOK, result.Report)
	case roidomain.OutcomeAmbiguous:
		c.JSON(http.StatusBadRequest, errorResponse{
			Type:    "ambiguous_client",
			Error:   result.Message,
			Clients: result.Candidates,
		})
	default:
		c.JSON(http.StatusNotFound, errorResponse{
			Type:  "client_not_found",
			Error: result.Message,
		})
	}
}
