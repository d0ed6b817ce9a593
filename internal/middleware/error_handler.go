package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindBadRequest:   http.StatusBadRequest,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindForbidden:    http.StatusForbidden,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConflict:     http.StatusConflict,
}

// CustomErrorHandler writes every error as JSON
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var body interface{} = map[string]string{"message": "Something went wrong. Please try again later."}

	var domainErr *services.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &domainErr):
		code = kindStatus[domainErr.Kind]
		if domainErr.Kind == services.KindValidation {
			body = map[string][]string{"errors": domainErr.Details}
		} else {
			body = map[string]string{"message": domainErr.Message}
		}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		msg := http.StatusText(code)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			msg = m
		}
		body = map[string]string{"message": msg}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "method", req.Method, "path", req.URL.Path, "status", code, "error", err)
	}

	if req.Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
