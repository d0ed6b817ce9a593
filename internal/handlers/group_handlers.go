package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

// GroupHandler handles group lifecycle and membership endpoints
type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func (h *GroupHandler) Create(c echo.Context) error {
	var req CreateGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.groups.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, group)
}

// CreateWithUser creates a group founded by userId, or by the caller when omitted
func (h *GroupHandler) CreateWithUser(c echo.Context) error {
	founderID := callerID(c)
	if c.QueryParam("userId") != "" {
		id, err := queryID(c, "userId")
		if err != nil {
			return err
		}
		founderID = id
	}
	var req CreateGroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.groups.CreateWithUser(c.Request().Context(), req.Name, founderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) List(c echo.Context) error {
	groups, err := h.groups.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	group, err := h.groups.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) GetByJoinCode(c echo.Context) error {
	group, err := h.groups.FindByJoinCode(c.Request().Context(), c.Param("joinCode"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.groups.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GroupHandler) AddUser(c echo.Context) error {
	return h.membership(c, "userId", h.groups.AddUser)
}

func (h *GroupHandler) RemoveUser(c echo.Context) error {
	return h.membership(c, "userId", h.groups.RemoveUser)
}

// KickUser removes targetUserId on behalf of the caller, who must be the group admin
func (h *GroupHandler) KickUser(c echo.Context) error {
	requester := callerID(c)
	return h.membership(c, "targetUserId", func(ctx context.Context, groupID, targetID uint) error {
		return h.groups.Kick(ctx, groupID, targetID, requester)
	})
}

func (h *GroupHandler) membership(c echo.Context, userParam string, apply func(ctx context.Context, groupID, userID uint) error) error {
	groupID, err := paramID(c, "groupId")
	if err != nil {
		return err
	}
	userID, err := paramID(c, userParam)
	if err != nil {
		return err
	}
	if err := apply(c.Request().Context(), groupID, userID); err != nil {
		return err
	}
	group, err := h.groups.Get(c.Request().Context(), groupID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, group)
}
