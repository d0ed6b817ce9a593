package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

// UserHandler serves user lookups, profile patches and account deletion
type UserHandler struct {
	users    *services.UserService
	groups   *services.GroupService
	accounts *services.AccountService
}

func NewUserHandler(users *services.UserService, groups *services.GroupService, accounts *services.AccountService) *UserHandler {
	return &UserHandler{users: users, groups: groups, accounts: accounts}
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByEmail(c echo.Context) error {
	user, err := h.users.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Group returns the group of a user
func (h *UserHandler) Group(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	group, err := h.groups.GroupOfUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

func (h *UserHandler) Permission(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	perm, err := h.groups.Permission(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"permission": string(perm)})
}

func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req AvatarRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateAvatar(c.Request().Context(), id, req.AvatarURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdatePaypal(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req PaypalRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdatePaypal(c.Request().Context(), id, req.PaypalEmail)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUsername(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UsernameRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUsername(c.Request().Context(), id, req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdatePhone(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req PhoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdatePhone(c.Request().Context(), id, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// CheckDeletionStatus evaluates the caller, or the user in the path when given
func (h *UserHandler) CheckDeletionStatus(c echo.Context) error {
	userID := callerID(c)
	if c.Param("id") != "" {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}
		userID = id
	}
	check, err := h.accounts.CheckDeletion(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, check)
}

// DeleteMe removes the caller's account
func (h *UserHandler) DeleteMe(c echo.Context) error {
	if err := h.accounts.DeleteAccount(c.Request().Context(), callerID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
