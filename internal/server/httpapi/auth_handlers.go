package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	msgRegistered      = "Registration Successful"
	msgLoggedIn        = "Login Success"
	msgPasswordChanged = "Password Changed Successfully"
	msgResetSent       = "Password Reset link sent. Please check your Email"
	msgResetDone       = "Password Reset Successfully"
)

func (h *Handler) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	_, pair, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse{Token: pair, Msg: msgRegistered})
}

func (h *Handler) Login(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, &in) {
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: pair, Msg: msgLoggedIn})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var in refreshRequest
	if !bindJSON(c, &in) {
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), in.Refresh)
	if err != nil {
		if errors.Is(err, common.ErrTokenInvalid) || errors.Is(err, common.ErrTokenExpired) {
			abortDetail(c, http.StatusUnauthorized, msgBadToken)
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accessResponse{Access: access})
}

func (h *Handler) Profile(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(user))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var in services.PasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), callerFrom(c), in); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgResponse{Msg: msgPasswordChanged})
}

// SendResetEmail answers the same way whether or not the address is known.
func (h *Handler) SendResetEmail(c *gin.Context) {
	var in resetEmailRequest
	if !bindJSON(c, &in) {
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgResponse{Msg: msgResetSent})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var in services.PasswordInput
	if !bindJSON(c, &in) {
		return
	}

	err := h.auth.SubmitPasswordReset(c.Request.Context(), c.Param("uid"), c.Param("token"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgResponse{Msg: msgResetDone})
}
