// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filedeck/filedeck/internal/storage"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Files   int    `json:"files"`
	Error   string `json:"error,omitempty"`
}

// HealthHandlerImpl reports liveness plus whether the file index answers.
type HealthHandlerImpl struct {
	store   storage.Store
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Store, version string) HealthHandler {
	return &HealthHandlerImpl{store: store, version: version}
}

// HandleHealth returns 200 with the stored file count, or 503 when the
// index cannot be listed.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	files, err := h.store.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, healthResponse{
			Status:  "degraded",
			Version: h.version,
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: h.version,
		Files:   len(files),
	})
}
