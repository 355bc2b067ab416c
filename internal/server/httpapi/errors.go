package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgNoCredentials      = "Authentication credentials were not provided."
	msgBadToken           = "Given token not valid for any token type"
	msgForbidden          = "You do not have permission to perform this action."
	msgNotFound           = "Not found."
	msgServerError        = "A server error occurred."
	msgInvalidCredentials = "Email or Password is not Valid"
	msgTokenInvalid       = "Token is not valid or has expired"
	msgRateLimited        = "Too many requests. Please slow down."
	msgEmailTaken         = "user with this email already exists."
	msgConflict           = "The record was changed by another request."
)

type errorResponse struct {
	Errors map[string]any `json:"errors"`
}

func fieldErrors(fields map[string][]string) errorResponse {
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return errorResponse{Errors: m}
}

func nonField(msg string) errorResponse {
	return errorResponse{Errors: map[string]any{common.NonFieldErrors: []string{msg}}}
}

func detail(msg string) errorResponse {
	return errorResponse{Errors: map[string]any{"detail": msg}}
}

func abortDetail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, detail(msg))
}

// writeError maps service errors onto status codes and the
// {"errors": {...}} envelope. Unknown errors are logged and answered 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, fieldErrors(verr.Fields))
	case errors.Is(err, common.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, fieldErrors(map[string][]string{"email": {msgEmailTaken}}))
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusNotFound, nonField(msgInvalidCredentials))
	case errors.Is(err, common.ErrTokenInvalid), errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusBadRequest, nonField(msgTokenInvalid))
	case errors.Is(err, common.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, detail(msgNoCredentials))
	case errors.Is(err, common.ErrForbidden):
		c.JSON(http.StatusForbidden, detail(msgForbidden))
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, detail(msgNotFound))
	case errors.Is(err, common.ErrVersionConflict):
		c.JSON(http.StatusConflict, nonField(msgConflict))
	case errors.Is(err, common.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, nonField(msgRateLimited))
	default:
		h.logger.Error(c.Request.Context(), "request failed",
			"error", err, "path", c.FullPath(), "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, detail(msgServerError))
	}
}

// bindJSON decodes the body into dst, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, nonField("JSON parse error - "+err.Error()))
		return false
	}
	return true
}
