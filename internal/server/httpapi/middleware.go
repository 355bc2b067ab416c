package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "request_id"
	callerKey    = "caller"
)

// RequestLogger tags each request with an X-Request-ID and logs one line
// per request once it completes.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Nop{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.Request.Header.Get(common.RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(common.RequestIDHeader, requestID)

		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if caller := callerFrom(c); caller.Authenticated() {
			args = append(args, "user_id", caller.UserID)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.Error(ctx, "http_request", args...)
		case status >= 400:
			logger.Warn(ctx, "http_request", args...)
		default:
			logger.Info(ctx, "http_request", args...)
		}
	}
}

// requireAuth resolves the bearer access token to an active user and
// stores the resulting auth.Caller on the context.
func (h *Handler) requireAuth(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeader)
	if header == "" {
		abortDetail(c, http.StatusUnauthorized, msgNoCredentials)
		return
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		abortDetail(c, http.StatusUnauthorized, msgBadToken)
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		h.logger.Debug(c.Request.Context(), "authentication failed", "error", err)
		abortDetail(c, http.StatusUnauthorized, msgBadToken)
		return
	}

	c.Set(callerKey, &auth.Caller{
		UserID:    user.ID,
		Email:     user.Email,
		IsStaff:   user.IsStaff,
		IsAdmin:   user.IsAdmin,
		RequestID: c.GetString(requestIDKey),
		ClientIP:  c.ClientIP(),
	})
	c.Next()
}

// callerFrom returns the authenticated caller, or nil.
func callerFrom(c *gin.Context) *auth.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*auth.Caller)
	return caller
}
