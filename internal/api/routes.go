// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/filedeck/filedeck/internal/config"
	"github.com/filedeck/filedeck/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store       storage.Store
	Hub         *Hub
	Auth        *TokenIssuer // nil disables authentication
	AllowDelete bool
	Version     string
	Logger      *log.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Files  FileHandler
	Events EventHandler
	auth   *TokenIssuer
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	h := &Handlers{
		Health: NewHealthHandler(deps.Store, deps.Version),
		auth:   deps.Auth,
	}
	if deps.Hub != nil {
		h.Files = NewFileHandler(deps.Store, deps.Hub, deps.AllowDelete, deps.Logger)
		h.Events = deps.Hub
	} else {
		h.Files = NewFileHandler(deps.Store, nil, deps.AllowDelete, deps.Logger)
	}
	return h
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	var guard []echo.MiddlewareFunc
	if handlers.auth != nil {
		guard = append(guard, handlers.auth.Middleware())
	}

	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// File management
	files := apiGroup.Group("/files", guard...)
	files.GET("", handlers.Files.HandleListFiles)
	files.POST("/upload", handlers.Files.HandleUploadFile)
	files.GET("/download/:fileName", handlers.Files.HandleDownloadFile)
	files.DELETE("/:fileName", handlers.Files.HandleDeleteFile)

	// Live file events
	if handlers.Events != nil {
		apiGroup.GET("/ws/files", handlers.Events.HandleWebSocket, guard...)
	}
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg *config.ServerConfig, showErrorDetails bool) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler(showErrorDetails)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasPrefix(path, "/api/ws/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/upload") ||
				strings.Contains(path, "/download") ||
				strings.HasPrefix(path, "/api/ws/")
		},
		ErrorMessage: "Request timeout",
	}))

	// Body limit middleware
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	// CORS configuration
	if cfg.EnableCORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			ExposeHeaders: []string{echo.HeaderContentDisposition, "ETag"},
		}))
	}
}
