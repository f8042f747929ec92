package router

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/adapter/api/handler"
)

// Setup mounts the routes that need no authentication.
func Setup(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
}
