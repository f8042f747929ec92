package handler

import (
	"github.com/labstack/echo/v4"

	"skillbridge/internal/usecase"
	"skillbridge/pkg/response"
)

type SkillHandler struct {
	skillUseCase *usecase.SkillUseCase
}

func NewSkillHandler(skillUseCase *usecase.SkillUseCase) *SkillHandler {
	return &SkillHandler{
		skillUseCase: skillUseCase,
	}
}

type offerSkillRequest struct {
	Teach string `json:"teach" validate:"required"`
	Learn string `json:"learn"`
}

func (h *SkillHandler) Offer(c echo.Context) error {
	var req offerSkillRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	skill, err := h.skillUseCase.Offer(c.Request().Context(), userID, usecase.OfferSkillInput{
		Teach: req.Teach,
		Learn: req.Learn,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, skill)
}

// Browse lists participants teaching a given skill; connecting from a
// result is what starts a conversation.
func (h *SkillHandler) Browse(c echo.Context) error {
	skills, err := h.skillUseCase.Browse(c.Request().Context(), c.QueryParam("teach"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, skills)
}
