package usecase

import (
	"context"
	"strings"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

type SkillUseCase struct {
	skillRepo       repository.SkillRepository
	participantRepo repository.ParticipantRepository
}

func NewSkillUseCase(skillRepo repository.SkillRepository, participantRepo repository.ParticipantRepository) *SkillUseCase {
	return &SkillUseCase{
		skillRepo:       skillRepo,
		participantRepo: participantRepo,
	}
}

type OfferSkillInput struct {
	Teach string
	Learn string
}

func (uc *SkillUseCase) Offer(ctx context.Context, userID string, input OfferSkillInput) (*entity.Skill, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if strings.TrimSpace(input.Teach) == "" {
		return nil, errors.Validation("A skill to teach is required")
	}

	owner, err := uc.participantRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error("Offer: owner profile %s not found: %v", userID, err)
		return nil, err
	}

	skill := &entity.Skill{
		OwnerID:   userID,
		OwnerName: owner.DisplayName,
		Teach:     input.Teach,
		Learn:     input.Learn,
	}

	if err := uc.skillRepo.Create(ctx, skill); err != nil {
		return nil, err
	}

	return skill, nil
}

func (uc *SkillUseCase) Browse(ctx context.Context, teach string) ([]*entity.Skill, error) {
	if strings.TrimSpace(teach) == "" {
		return nil, errors.BadRequest("A skill name is required", nil)
	}
	return uc.skillRepo.ListByTeach(ctx, teach)
}
