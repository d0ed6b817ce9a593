package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"listify_echo/internal/services"
)

type StorageHandler struct {
	storage *services.StorageService
}

func NewStorageHandler(storage *services.StorageService) *StorageHandler {
	return &StorageHandler{storage: storage}
}

// Upload stores the multipart "file" field and returns its public URL
func (h *StorageHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	defer src.Close()

	url, err := h.storage.Upload(c.Request().Context(), file.Filename, file.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
