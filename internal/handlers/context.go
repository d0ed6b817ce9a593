package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/middleware"
)

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func getUintFromContext(c echo.Context, key string) uint {
	val := c.Get(key)
	if val == nil {
		return 0
	}
	uintVal, ok := val.(uint)
	if !ok {
		return 0
	}
	return uintVal
}

func callerID(c echo.Context) uint {
	return getUintFromContext(c, middleware.ContextUserID)
}

func callerEmail(c echo.Context) string {
	return getStringFromContext(c, middleware.ContextUserEmail)
}

// paramID parses a positive numeric path parameter
func paramID(c echo.Context, name string) (uint, error) {
	return parseID(c.Param(name), name)
}

// queryID parses a positive numeric query parameter
func queryID(c echo.Context, name string) (uint, error) {
	return parseID(c.QueryParam(name), name)
}

func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
