package router

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/adapter/api/handler"
	"skillbridge/internal/adapter/api/middleware"
)

func SetupSkillRouter(e *echo.Echo, skillHandler *handler.SkillHandler, authMiddleware *middleware.AuthMiddleware) {
	skills := e.Group("/v1/skills")
	skills.Use(authMiddleware.Authenticate)

	skills.POST("", skillHandler.Offer)
	skills.GET("", skillHandler.Browse)
}
