package repository

import (
	"context"

	"skillbridge/internal/domain/entity"
)

// MessageRepository is the append-only per-conversation message log.
type MessageRepository interface {
	// Append persists a message, assigning its id and a
	// server-observed send timestamp that never decreases within a
	// conversation.
	Append(ctx context.Context, message *entity.Message) error

	// List returns messages for a conversation ordered ascending by
	// (sentAt, id), plus the total count.
	List(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)

	// Stream delivers the full ordered message list for a
	// conversation on every change, re-establishing the underlying
	// listener with backoff after transient drops. The channel closes
	// when ctx is cancelled or the stream fails terminally.
	Stream(ctx context.Context, conversationID string) (<-chan []*entity.Message, error)
}
