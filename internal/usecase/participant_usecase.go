package usecase

import (
	"context"
	"time"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/internal/infrastructure/firebase"
	"skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

type ParticipantUseCase struct {
	participantRepo repository.ParticipantRepository
	authClient      *firebase.FirebaseAuthClient
}

func NewParticipantUseCase(participantRepo repository.ParticipantRepository, authClient *firebase.FirebaseAuthClient) *ParticipantUseCase {
	return &ParticipantUseCase{
		participantRepo: participantRepo,
		authClient:      authClient,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

func (uc *ParticipantUseCase) Register(ctx context.Context, input RegisterInput) (*entity.Participant, error) {
	uid, err := uc.authClient.CreateUser(ctx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		logger.Error("Register: failed to create auth user for %s: %v", input.Email, err)
		return nil, errors.BadRequest("Failed to create account", err)
	}

	participant := &entity.Participant{
		ID:          uid,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		CreatedAt:   time.Now(),
	}

	if err := uc.participantRepo.Create(ctx, participant); err != nil {
		logger.Error("Register: failed to store profile for %s: %v", uid, err)
		return nil, err
	}

	return participant, nil
}

func (uc *ParticipantUseCase) Me(ctx context.Context, userID string) (*entity.Participant, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return uc.participantRepo.GetByID(ctx, userID)
}
