package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

type firestoreMessageRepository struct {
	client         *firestore.Client
	clock          *sendClock
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewFirestoreMessageRepository(client *firestore.Client, initialBackoff, maxBackoff time.Duration) repository.MessageRepository {
	return &firestoreMessageRepository{
		client:         client,
		clock:          newSendClock(),
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

func (r *firestoreMessageRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.client.Collection("conversations").Doc(conversationID).Collection("messages")
}

func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	// The send timestamp is observed server-side, never taken from
	// the client, so a skewed client clock cannot reorder the log.
	message.SentAt = r.clock.next(message.ConversationID)

	_, err := r.messages(message.ConversationID).Doc(message.ID).Set(ctx, message)
	if err != nil {
		if status.Code(err) == codes.Unavailable {
			return errors.Unavailable("Message store is unreachable", err)
		}
		return errors.Internal("Failed to append message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) orderedQuery(conversationID string) firestore.Query {
	return r.messages(conversationID).
		OrderBy("sentAt", firestore.Asc).
		OrderBy("id", firestore.Asc)
}

func (r *firestoreMessageRepository) List(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.orderedQuery(conversationID)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for conversation %s: %v", conversationID, err)
		if status.Code(err) == codes.Unavailable {
			return nil, 0, errors.Unavailable("Message store is unreachable", err)
		}
		return nil, 0, errors.Internal("Failed to fetch messages", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var messages []*entity.Message
	for i := start; i < end; i++ {
		var message entity.Message
		if err := allDocs[i].DataTo(&message); err != nil {
			logger.Warn("Skipping unparsable message %s in conversation %s: %v", allDocs[i].Ref.ID, conversationID, err)
			continue
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) Stream(ctx context.Context, conversationID string) (<-chan []*entity.Message, error) {
	out := make(chan []*entity.Message, 1)

	go func() {
		defer close(out)

		backoff := r.initialBackoff
		for {
			snapshots := r.orderedQuery(conversationID).Snapshots(ctx)
			err := r.forwardSnapshots(ctx, conversationID, snapshots, out, &backoff)
			snapshots.Stop()

			if ctx.Err() != nil {
				return
			}
			if !retryable(err) {
				logger.Error("Message stream for conversation %s failed terminally: %v", conversationID, err)
				return
			}

			logger.Warn("Message stream for conversation %s dropped: %v; retrying in %s", conversationID, err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff *= 2; backoff > r.maxBackoff {
				backoff = r.maxBackoff
			}
		}
	}()

	return out, nil
}

func (r *firestoreMessageRepository) forwardSnapshots(ctx context.Context, conversationID string, snapshots *firestore.QuerySnapshotIterator, out chan []*entity.Message, backoff *time.Duration) error {
	for {
		snap, err := snapshots.Next()
		if err != nil {
			return err
		}

		// A delivered snapshot means the listener is healthy again.
		*backoff = r.initialBackoff

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return err
		}

		messages := make([]*entity.Message, 0, len(docs))
		for _, doc := range docs {
			var message entity.Message
			if err := doc.DataTo(&message); err != nil {
				logger.Warn("Skipping unparsable message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
				continue
			}
			messages = append(messages, &message)
		}

		// Keep only the newest snapshot for a slow consumer; the
		// stream then never delivers stale-after-new.
		select {
		case <-out:
		default:
		}
		select {
		case out <- messages:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func retryable(err error) bool {
	if err == nil || err == iterator.Done {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted:
		return true
	}
	return false
}
