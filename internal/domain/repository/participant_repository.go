package repository

import (
	"context"

	"skillbridge/internal/domain/entity"
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
}
