package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

// ShoppingHandler handles shopping lists, their items and product suggestions
type ShoppingHandler struct {
	lists       *services.ShoppingService
	items       *services.ItemService
	suggestions *services.SuggestionService
	users       *services.UserService
}

func NewShoppingHandler(lists *services.ShoppingService, items *services.ItemService, suggestions *services.SuggestionService, users *services.UserService) *ShoppingHandler {
	return &ShoppingHandler{lists: lists, items: items, suggestions: suggestions, users: users}
}

// CreateList creates a list with its items; the owner defaults to the caller
func (h *ShoppingHandler) CreateList(c echo.Context) error {
	var req services.CreateListInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.OwnerEmail == "" {
		req.OwnerEmail = callerEmail(c)
	}
	list, err := h.lists.CreateWithItems(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *ShoppingHandler) ListAll(c echo.Context) error {
	lists, err := h.lists.All(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

func (h *ShoppingHandler) GetList(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.lists.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ShoppingHandler) DeleteList(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.lists.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Visible returns the caller's private lists and the shared lists of their group
func (h *ShoppingHandler) Visible(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}
	lists, err := h.lists.VisibleTo(c.Request().Context(), *user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

func (h *ShoppingHandler) Own(c echo.Context) error {
	lists, err := h.lists.Own(c.Request().Context(), emailOrCaller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

// Shared returns the shared lists of groupId, or of the caller's group
func (h *ShoppingHandler) Shared(c echo.Context) error {
	var groupID uint
	if c.QueryParam("groupId") != "" {
		id, err := queryID(c, "groupId")
		if err != nil {
			return err
		}
		groupID = id
	} else {
		user, err := h.users.Get(c.Request().Context(), callerID(c))
		if err != nil {
			return err
		}
		if user.GroupID == nil {
			return c.JSON(http.StatusOK, []interface{}{})
		}
		groupID = *user.GroupID
	}
	lists, err := h.lists.Shared(c.Request().Context(), groupID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

func (h *ShoppingHandler) WithItems(c echo.Context) error {
	lists, err := h.lists.WithItemsFor(c.Request().Context(), emailOrCaller(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

// FrequentItems suggests items the caller buys often and has not put on a list yet
func (h *ShoppingHandler) FrequentItems(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), callerID(c))
	if err != nil {
		return err
	}
	names, err := h.lists.FrequentSuggestions(c.Request().Context(), *user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, names)
}

func (h *ShoppingHandler) AddItems(c echo.Context) error {
	var req AddItemsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	items, err := h.lists.AddItems(c.Request().Context(), req.ShoppingListID, req.Items, callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *ShoppingHandler) CreateItem(c echo.Context) error {
	var req services.CreateItemInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.items.Create(c.Request().Context(), req, callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *ShoppingHandler) UpdateItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateItemInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.items.Update(c.Request().Context(), id, req, callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ShoppingHandler) DeleteItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.items.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ShoppingHandler) ItemsByList(c echo.Context) error {
	return h.itemsByList(c, false)
}

func (h *ShoppingHandler) OpenItemsByList(c echo.Context) error {
	return h.itemsByList(c, true)
}

func (h *ShoppingHandler) itemsByList(c echo.Context, onlyOpen bool) error {
	listID, err := paramID(c, "listId")
	if err != nil {
		return err
	}
	items, err := h.items.ByList(c.Request().Context(), listID, onlyOpen)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ShoppingHandler) SearchSuggestions(c echo.Context) error {
	suggestions, err := h.suggestions.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, suggestions)
}

func (h *ShoppingHandler) CreateSuggestion(c echo.Context) error {
	var req SuggestionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	suggestion, err := h.suggestions.Create(c.Request().Context(), req.Name, callerEmail(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, suggestion)
}

func emailOrCaller(c echo.Context) string {
	if email := c.QueryParam("email"); email != "" {
		return email
	}
	return callerEmail(c)
}
