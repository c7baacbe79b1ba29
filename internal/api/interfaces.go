// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/filedeck/filedeck/internal/models"
)

// FileHandler handles file collection operations
type FileHandler interface {
	HandleListFiles(c echo.Context) error
	HandleUploadFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// EventHandler streams file events to WebSocket subscribers
type EventHandler interface {
	HandleWebSocket(c echo.Context) error
}

// EventPublisher receives file events produced by the handlers.
// This allows mocking in tests
type EventPublisher interface {
	Publish(ev models.FileEvent)
}
