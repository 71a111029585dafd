package handlers

import (
	"net/http"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// ForgotPasswordRequest asks for a reset link
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the link parameters and the new password
type ResetPasswordRequest struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Register creates a client account
func (h *AuthHandlers) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	profile, err := h.authService.Register(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, profile, "User registered")
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	token, err := h.authService.Login(c.Request().Context(), &req)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, token, "")
}

// Profile returns the caller with their client record
func (h *AuthHandlers) Profile(c echo.Context) error {
	actor, err := common.ActorFrom(c)
	if err != nil {
		return common.SendError(c, err)
	}

	profile, err := h.authService.Profile(c.Request().Context(), actor)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, profile, "")
}

// ForgotPassword always answers the same way whether or not the email exists
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "If the email is registered, a reset link has been sent")
}

func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	userID, err := uuid.Parse(req.ID)
	if err != nil {
		return common.SendValidationError(c, "id", "id must be a valid UUID")
	}
	if req.Token == "" {
		return common.SendValidationError(c, "token", "token is required")
	}

	if err := h.authService.ResetPassword(c.Request().Context(), userID, req.Token, req.Password); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, "Password updated")
}
