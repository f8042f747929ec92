package router

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/adapter/api/handler"
	"skillbridge/internal/adapter/api/middleware"
)

func SetupAuthRouter(e *echo.Echo, participantHandler *handler.ParticipantHandler, authMiddleware *middleware.AuthMiddleware) {
	e.POST("/v1/auth/register", participantHandler.Register)
	e.GET("/v1/me", participantHandler.Me, authMiddleware.Authenticate)
}
