package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/pkg/errors"
)

type firestoreParticipantRepository struct {
	client *firestore.Client
}

func NewFirestoreParticipantRepository(client *firestore.Client) repository.ParticipantRepository {
	return &firestoreParticipantRepository{
		client: client,
	}
}

func (r *firestoreParticipantRepository) Create(ctx context.Context, participant *entity.Participant) error {
	_, err := r.client.Collection("users").Doc(participant.ID).Set(ctx, participant)
	if err != nil {
		return errors.Internal("Failed to create participant", err)
	}
	return nil
}

func (r *firestoreParticipantRepository) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Participant", err)
		}
		return nil, errors.Internal("Failed to get participant", err)
	}

	var participant entity.Participant
	if err := doc.DataTo(&participant); err != nil {
		return nil, errors.Internal("Failed to parse participant data", err)
	}

	return &participant, nil
}
