package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/pkg/convid"
	"skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

type firestoreContactRepository struct {
	client         *firestore.Client
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewFirestoreContactRepository(client *firestore.Client, initialBackoff, maxBackoff time.Duration) repository.ContactRepository {
	return &firestoreContactRepository{
		client:         client,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

func (r *firestoreContactRepository) contactDoc(ownerID, conversationID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(ownerID).Collection("contacts").Doc(conversationID)
}

// EnsureContact writes both owner-scoped rows in one transaction so a
// partial failure aborts the whole contact event; retrying is safe
// because the write is idempotent. updatedAt is read first and never
// moved backward.
func (r *firestoreContactRepository) EnsureContact(ctx context.Context, conversationID, selfID, selfName, otherID, otherName string) error {
	selfRef := r.contactDoc(selfID, conversationID)
	otherRef := r.contactDoc(otherID, conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		updatedAt := now
		for _, ref := range []*firestore.DocumentRef{selfRef, otherRef} {
			doc, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					continue
				}
				return err
			}
			var existing entity.Contact
			if err := doc.DataTo(&existing); err != nil {
				// Broken row; the write below repairs it.
				continue
			}
			if existing.UpdatedAt.After(updatedAt) {
				updatedAt = existing.UpdatedAt
			}
		}

		if err := tx.Set(selfRef, contactWrite(conversationID, otherID, otherName, updatedAt), firestore.MergeAll); err != nil {
			return err
		}
		return tx.Set(otherRef, contactWrite(conversationID, selfID, selfName, updatedAt), firestore.MergeAll)
	})

	if err != nil {
		if status.Code(err) == codes.Unavailable {
			return errors.Unavailable("Contact store is unreachable", err)
		}
		return errors.Internal("Failed to ensure contact rows", err)
	}

	return nil
}

// contactWrite is the merge payload for one owner's contact row. It
// must stay map-shaped: the client rejects MergeAll with struct data
// before any RPC is made. lastMessage is deliberately absent so an
// ensure never clears an existing preview.
func contactWrite(conversationID, otherID, otherName string, updatedAt time.Time) map[string]interface{} {
	return map[string]interface{}{
		"conversationId": conversationID,
		"otherUserId":    otherID,
		"otherUserName":  otherName,
		"updatedAt":      updatedAt,
	}
}

func (r *firestoreContactRepository) Touch(ctx context.Context, conversationID, lastMessage string, at time.Time) error {
	a, b, err := convid.Split(conversationID)
	if err != nil {
		return err
	}

	update := map[string]interface{}{
		"conversationId": conversationID,
		"lastMessage":    lastMessage,
		"updatedAt":      at,
	}

	batch := r.client.Batch()
	batch.Set(r.contactDoc(a, conversationID), update, firestore.MergeAll)
	batch.Set(r.contactDoc(b, conversationID), update, firestore.MergeAll)
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Internal("Failed to touch contact rows", err)
	}

	return nil
}

func (r *firestoreContactRepository) Get(ctx context.Context, ownerID, conversationID string) (*entity.Contact, error) {
	doc, err := r.contactDoc(ownerID, conversationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get contact", err)
	}

	var contact entity.Contact
	if err := doc.DataTo(&contact); err != nil {
		return nil, errors.Internal("Failed to parse contact data", err)
	}

	return &contact, nil
}

func (r *firestoreContactRepository) orderedQuery(ownerID string) firestore.Query {
	return r.client.Collection("users").Doc(ownerID).Collection("contacts").
		OrderBy("updatedAt", firestore.Desc)
}

func (r *firestoreContactRepository) List(ctx context.Context, ownerID string) ([]*entity.Contact, error) {
	docs, err := r.orderedQuery(ownerID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching contacts for user %s: %v", ownerID, err)
		if status.Code(err) == codes.Unavailable {
			return nil, errors.Unavailable("Contact store is unreachable", err)
		}
		return nil, errors.Internal("Failed to fetch contacts", err)
	}

	return parseContacts(ownerID, docs), nil
}

func (r *firestoreContactRepository) Stream(ctx context.Context, ownerID string) (<-chan []*entity.Contact, error) {
	out := make(chan []*entity.Contact, 1)

	go func() {
		defer close(out)

		backoff := r.initialBackoff
		for {
			snapshots := r.orderedQuery(ownerID).Snapshots(ctx)
			err := r.forwardSnapshots(ctx, ownerID, snapshots, out, &backoff)
			snapshots.Stop()

			if ctx.Err() != nil {
				return
			}
			if !retryable(err) {
				logger.Error("Contact stream for user %s failed terminally: %v", ownerID, err)
				return
			}

			logger.Warn("Contact stream for user %s dropped: %v; retrying in %s", ownerID, err, backoff)
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

func (r *firestoreContactRepository) forwardSnapshots(ctx context.Context, ownerID string, snapshots *firestore.QuerySnapshotIterator, out chan []*entity.Contact, backoff *time.Duration) error {
	for {
		snap, err := snapshots.Next()
		if err != nil {
			return err
		}

		*backoff = r.initialBackoff

		docs, err := snap.Documents.GetAll()
		if err != nil {
			return err
		}

		contacts := parseContacts(ownerID, docs)

		select {
		case <-out:
		default:
		}
		select {
		case out <- contacts:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func parseContacts(ownerID string, docs []*firestore.DocumentSnapshot) []*entity.Contact {
	contacts := make([]*entity.Contact, 0, len(docs))
	for _, doc := range docs {
		var contact entity.Contact
		if err := doc.DataTo(&contact); err != nil {
			logger.Warn("Skipping unparsable contact %s for user %s: %v", doc.Ref.ID, ownerID, err)
			continue
		}
		contacts = append(contacts, &contact)
	}
	return contacts
}
