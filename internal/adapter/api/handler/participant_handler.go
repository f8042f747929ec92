package handler

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/usecase"
	"skillbridge/pkg/response"
)

type ParticipantHandler struct {
	participantUseCase *usecase.ParticipantUseCase
}

func NewParticipantHandler(participantUseCase *usecase.ParticipantUseCase) *ParticipantHandler {
	return &ParticipantHandler{
		participantUseCase: participantUseCase,
	}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
}

func (h *ParticipantHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	participant, err := h.participantUseCase.Register(c.Request().Context(), usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, participant)
}

func (h *ParticipantHandler) Me(c echo.Context) error {
	userID := c.Get("uid").(string)

	participant, err := h.participantUseCase.Me(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, participant)
}
