package repository

import (
	"context"
	"time"

	"skillbridge/internal/domain/entity"
)

// ContactRepository owns the per-owner conversation list rows.
type ContactRepository interface {
	// EnsureContact upserts both sides of a contact relation in one
	// atomic write: a row scoped to selfID referencing other*, and a
	// row scoped to otherID referencing self*. Repeated calls never
	// duplicate rows and never move updatedAt backward.
	EnsureContact(ctx context.Context, conversationID, selfID, selfName, otherID, otherName string) error

	// Touch bumps updatedAt and the last-message preview on both
	// owners' rows after a send. Missing rows get a partial merge
	// write; list views hide them until EnsureContact repairs them.
	Touch(ctx context.Context, conversationID, lastMessage string, at time.Time) error

	// Get returns ownerID's row for a conversation.
	Get(ctx context.Context, ownerID, conversationID string) (*entity.Contact, error)

	// List returns ownerID's rows ordered descending by updatedAt,
	// including rows that fail well-formedness; callers filter for
	// display.
	List(ctx context.Context, ownerID string) ([]*entity.Contact, error)

	// Stream delivers ownerID's full ordered contact list on every
	// change, with the same reconnection behavior as
	// MessageRepository.Stream.
	Stream(ctx context.Context, ownerID string) (<-chan []*entity.Contact, error)
}
