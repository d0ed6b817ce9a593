package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/models"
	"listify_echo/internal/services"
)

type UserPreferenceHandler struct {
	users *services.UserService
}

func NewUserPreferenceHandler(users *services.UserService) *UserPreferenceHandler {
	return &UserPreferenceHandler{users: users}
}

// GetUserPreference returns the stored preference or the defaults
func (h *UserPreferenceHandler) GetUserPreference(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	pref, err := h.users.Preference(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pref)
}

// UpdateUserPreference upserts the preference of a user
func (h *UserPreferenceHandler) UpdateUserPreference(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req PreferenceRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pref, err := h.users.SavePreference(c.Request().Context(), userID, models.UserNotifPreference{
		Channel:            req.Channel,
		WhatsappTargetType: req.WhatsappTargetType,
		WhatsappGroupID:    req.WhatsappGroupID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pref)
}
