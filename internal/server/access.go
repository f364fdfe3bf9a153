package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/roi/internal/auth/magiclink"
	"github.com/smallbiznis/roi/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	roiPage = "/roi-analysis.html"

	pageMissingParams = `<html><body>
<h1>Invalid Link</h1>
<p>Missing token or email parameter.</p>
</body></html>`

	pageInvalidLink = `<html><body>
<h1>Invalid or Expired Link</h1>
<p>This access link is invalid, expired, or has already been used.</p>
<p><a href="/">Request a new link</a></p>
</body></html>`

	pageVerifyError = `<html><body>
<h1>Error</h1>
<p>An error occurred while verifying your access link.</p>
</body></html>`
)

type requestAccessRequest struct {
	Email string `json:"email" form:"email"`
}

type requestAccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) RequestAccess(c *gin.Context) {
	var req requestAccessRequest
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, ErrInvalidEmail)
		return
	}
	email := strings.TrimSpace(req.Email)
	if !magiclink.ValidEmail(email) {
		AbortWithError(c, ErrInvalidEmail)
		return
	}

	ctx := c.Request.Context()
	if err := s.access.RequestAccess(ctx, email); err != nil {
		logger.FromContext(ctx).Error("failed to send magic link", logger.Email(email), zap.Error(err))
		AbortWithError(c, err)
		return
	}

	logger.FromContext(ctx).Info("magic link request successful", logger.Email(email))
	c.JSON(http.StatusOK, requestAccessResponse{
		Success: true,
		Message: "Access link sent to your email",
	})
}

// Verify checks an emailed link and forwards to the report page. The token
// stays valid so the page can spend it on the report request.
func (s *Server) Verify(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	email := strings.TrimSpace(c.Query("email"))
	if token == "" || email == "" {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(pageMissingParams))
		return
	}

	ctx := c.Request.Context()
	ok, err := s.access.Check(ctx, token, email)
	if err != nil {
		logger.FromContext(ctx).Error("error verifying magic link", logger.Email(email), zap.Error(err))
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(pageVerifyError))
		return
	}
	if !ok {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(pageInvalidLink))
		return
	}

	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)
	c.Redirect(http.StatusFound, roiPage+"?"+query.Encode())
}
