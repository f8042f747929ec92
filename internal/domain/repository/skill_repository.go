package repository

import (
	"context"

	"skillbridge/internal/domain/entity"
)

type SkillRepository interface {
	Create(ctx context.Context, skill *entity.Skill) error
	ListByTeach(ctx context.Context, teach string) ([]*entity.Skill, error)
}
