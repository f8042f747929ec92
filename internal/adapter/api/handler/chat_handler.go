package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"skillbridge/internal/usecase"
	"skillbridge/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type connectRequest struct {
	OtherID   string `json:"other_id" validate:"required"`
	OtherName string `json:"other_name"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// Connect starts (or resumes) a conversation with another participant
// and returns its id.
func (h *ChatHandler) Connect(c echo.Context) error {
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.chatUseCase.Connect(c.Request().Context(), userID, usecase.ConnectInput{
		OtherID:   req.OtherID,
		OtherName: req.OtherName,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

// ListContacts returns the caller's conversation list, most recently
// active first.
func (h *ChatHandler) ListContacts(c echo.Context) error {
	userID := c.Get("uid").(string)

	contacts, err := h.chatUseCase.ListContacts(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, contacts)
}

// GetContact returns the caller's list row for one conversation.
func (h *ChatHandler) GetContact(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	contact, err := h.chatUseCase.GetContact(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, contact)
}

// GetMessages returns the ordered log for the initial conversation
// view.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	limit := 50
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	messages, total, err := h.chatUseCase.GetMessages(c.Request().Context(), userID, conversationID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, limit, offset)
}

// SendMessage appends one message to a conversation.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, conversationID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}
