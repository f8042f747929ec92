package router

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/adapter/api/handler"
)

// SetupDevRouter mounts development-only endpoints. Production
// deployments never get these routes.
func SetupDevRouter(e *echo.Echo, environment string, devTokenHandler *handler.DevTokenHandler) {
	if environment != "development" {
		return
	}

	e.POST("/v1/dev/token", devTokenHandler.CreateToken)
}
