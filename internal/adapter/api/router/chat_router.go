package router

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/adapter/api/handler"
	"skillbridge/internal/adapter/api/middleware"
)

// SetupChatRouter mounts the conversation endpoints (excluding the
// WebSocket).
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("/connect", chatHandler.Connect)    // start or resume a conversation
	conversations.GET("", chatHandler.ListContacts)        // recent conversations, newest activity first
	conversations.GET("/:id", chatHandler.GetContact)      // one list row
	conversations.GET("/:id/messages", chatHandler.GetMessages)
	conversations.POST("/:id/messages", chatHandler.SendMessage)
}
