package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/core"
	"github.com/vovakirdan/chatline-server/internal/service/users"
)

const (
	msgInvalidUserBody = "Invalid user body"
	msgUserNotFound    = "User not found"
	msgUserSaveFailed  = "Error when saving user"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	svc *users.Service
	log *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *users.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		svc: svc,
		log: logger,
	}
}

func (h *UserHandlers) bindCredentials(c *gin.Context) (users.Credentials, bool) {
	var creds users.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.String(stdhttp.StatusBadRequest, msgInvalidUserBody)
		return creds, false
	}
	if err := users.ValidateCredentials(creds); err != nil {
		c.String(stdhttp.StatusBadRequest, msgInvalidUserBody)
		return creds, false
	}
	return creds, true
}

// writeError maps a user service error onto a status and plain text body.
func (h *UserHandlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidUser):
		c.String(stdhttp.StatusBadRequest, msgInvalidUserBody)
	case errors.Is(err, core.ErrNotFound):
		c.String(stdhttp.StatusNotFound, msgUserNotFound)
	default:
		h.log.Warn().Err(err).Str("path", c.FullPath()).Msg("user request failed")
		c.String(stdhttp.StatusInternalServerError, msgUserSaveFailed+": "+err.Error())
	}
}

// Signup creates an account.
// POST /user/signup
func (h *UserHandlers) Signup(c *gin.Context) {
	creds, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	profile, err := h.svc.Signup(c.Request.Context(), creds)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, userToWire(profile))
}

// Login checks credentials.
// POST /user/login
func (h *UserHandlers) Login(c *gin.Context) {
	creds, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	profile, err := h.svc.Login(c.Request.Context(), creds)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, userToWire(profile))
}

// GetUser returns one account.
// GET /user/getUser/:username
func (h *UserHandlers) GetUser(c *gin.Context) {
	profile, err := h.svc.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, userToWire(profile))
}

// DeleteUser removes an account and returns it.
// DELETE /user/deleteUser/:username
func (h *UserHandlers) DeleteUser(c *gin.Context) {
	profile, err := h.svc.Delete(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, userToWire(profile))
}

// ResetPassword replaces the password of an account.
// PATCH /user/resetPassword
func (h *UserHandlers) ResetPassword(c *gin.Context) {
	creds, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	profile, err := h.svc.ResetPassword(c.Request.Context(), creds)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, userToWire(profile))
}
