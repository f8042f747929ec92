package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

type firestoreSkillRepository struct {
	client *firestore.Client
}

func NewFirestoreSkillRepository(client *firestore.Client) repository.SkillRepository {
	return &firestoreSkillRepository{
		client: client,
	}
}

func (r *firestoreSkillRepository) Create(ctx context.Context, skill *entity.Skill) error {
	if skill.ID == "" {
		skill.ID = uuid.New().String()
	}
	skill.CreatedAt = time.Now()

	_, err := r.client.Collection("skills").Doc(skill.ID).Set(ctx, skill)
	if err != nil {
		return errors.Internal("Failed to create skill", err)
	}

	return nil
}

func (r *firestoreSkillRepository) ListByTeach(ctx context.Context, teach string) ([]*entity.Skill, error) {
	iter := r.client.Collection("skills").Where("teach", "==", teach).Documents(ctx)

	var skills []*entity.Skill
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing skills for %q: %v", teach, err)
			return nil, errors.Internal("Failed to list skills", err)
		}

		var skill entity.Skill
		if err := doc.DataTo(&skill); err != nil {
			logger.Warn("Skipping unparsable skill %s: %v", doc.Ref.ID, err)
			continue
		}
		skills = append(skills, &skill)
	}

	return skills, nil
}
