package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register creates an account and returns a session token
func (h *AuthHandler) Register(c echo.Context) error {
	var req services.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login verifies credentials and returns a session token
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
