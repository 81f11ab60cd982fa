package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/backoffice-kit/backoffice/internal/auth"
	"github.com/backoffice-kit/backoffice/internal/persistence"
	"github.com/backoffice-kit/backoffice/internal/validation"
)

// AuthHandler exposes login and the password-reset flow.
type AuthHandler struct {
	service *auth.Service
	store   *persistence.Facade
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(service *auth.Service, store *persistence.Facade) *AuthHandler {
	return &AuthHandler{service: service, store: store}
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an admin and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	token, err := h.service.Login(c.Request.Context(), strings.TrimSpace(body.Email), body.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// resetTokenRequest defines the request body for reset-token issuance.
type resetTokenRequest struct {
	Email string `json:"email"`
}

// GenerateResetToken issues a short-lived password-reset token.
func (h *AuthHandler) GenerateResetToken(c *gin.Context) {
	var body resetTokenRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	token, err := h.service.GenerateResetToken(c.Request.Context(), strings.TrimSpace(body.Email))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset_password_token": token})
}

// resetPasswordRequest defines the request body for applying a reset.
type resetPasswordRequest struct {
	ResetPasswordToken string `json:"reset_password_token"`
	Password           string `json:"password"`
}

// ResetPassword verifies a reset token and sets the new password for the
// account the token names.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body resetPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	claims, err := h.service.VerifyResetToken(body.ResetPasswordToken)
	if err != nil {
		RespondError(c, err)
		return
	}
	if _, err := h.store.Update(c.Request.Context(), "admin", persistence.UpdateInput{
		ID:     claims.ID,
		Mode:   validation.ModeUpdatePassword,
		Fields: map[string]any{"password": body.Password},
	}); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
