package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"skillbridge/internal/domain/entity"
	"skillbridge/pkg/convid"
	"skillbridge/pkg/errors"
)

// fakeMessageRepo mimics the store's append semantics: assigned ids,
// server-side strictly increasing timestamps per conversation.
type fakeMessageRepo struct {
	mu       sync.Mutex
	logs     map[string][]*entity.Message
	nextID   int
	lastSent map[string]time.Time
	failNext error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		logs:     make(map[string][]*entity.Message),
		lastSent: make(map[string]time.Time),
	}
}

func (r *fakeMessageRepo) Append(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}

	r.nextID++
	message.ID = "m" + strconv.Itoa(r.nextID)

	now := time.Now()
	if last, ok := r.lastSent[message.ConversationID]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	r.lastSent[message.ConversationID] = now
	message.SentAt = now

	r.logs[message.ConversationID] = append(r.logs[message.ConversationID], message)
	return nil
}

func (r *fakeMessageRepo) List(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logs[conversationID]
	total := int64(len(log))

	start := offset
	if start > len(log) {
		start = len(log)
	}
	end := len(log)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return append([]*entity.Message(nil), log[start:end]...), total, nil
}

func (r *fakeMessageRepo) Stream(ctx context.Context, conversationID string) (<-chan []*entity.Message, error) {
	ch := make(chan []*entity.Message, 1)
	r.mu.Lock()
	ch <- append([]*entity.Message(nil), r.logs[conversationID]...)
	r.mu.Unlock()
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

// fakeContactRepo mirrors the two-sided idempotent upsert.
type fakeContactRepo struct {
	mu   sync.Mutex
	rows map[string]map[string]*entity.Contact // ownerID -> conversationID -> row
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{rows: make(map[string]map[string]*entity.Contact)}
}

func (r *fakeContactRepo) upsert(ownerID string, row *entity.Contact) {
	if r.rows[ownerID] == nil {
		r.rows[ownerID] = make(map[string]*entity.Contact)
	}
	existing, ok := r.rows[ownerID][row.ConversationID]
	if ok && existing.UpdatedAt.After(row.UpdatedAt) {
		row.UpdatedAt = existing.UpdatedAt
	}
	if ok && row.LastMessage == "" {
		row.LastMessage = existing.LastMessage
	}
	r.rows[ownerID][row.ConversationID] = row
}

func (r *fakeContactRepo) EnsureContact(ctx context.Context, conversationID, selfID, selfName, otherID, otherName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.upsert(selfID, &entity.Contact{
		ConversationID: conversationID,
		OtherID:        otherID,
		OtherName:      otherName,
		UpdatedAt:      now,
	})
	r.upsert(otherID, &entity.Contact{
		ConversationID: conversationID,
		OtherID:        selfID,
		OtherName:      selfName,
		UpdatedAt:      now,
	})
	return nil
}

func (r *fakeContactRepo) Touch(ctx context.Context, conversationID, lastMessage string, at time.Time) error {
	a, b, err := convid.Split(conversationID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, owner := range []string{a, b} {
		if row, ok := r.rows[owner][conversationID]; ok {
			row.LastMessage = lastMessage
			if at.After(row.UpdatedAt) {
				row.UpdatedAt = at
			}
		}
	}
	return nil
}

func (r *fakeContactRepo) Get(ctx context.Context, ownerID, conversationID string) (*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[ownerID][conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return row, nil
}

func (r *fakeContactRepo) List(ctx context.Context, ownerID string) ([]*entity.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var contacts []*entity.Contact
	for _, row := range r.rows[ownerID] {
		contacts = append(contacts, row)
	}
	for i := 0; i < len(contacts); i++ {
		for j := i + 1; j < len(contacts); j++ {
			if contacts[j].UpdatedAt.After(contacts[i].UpdatedAt) {
				contacts[i], contacts[j] = contacts[j], contacts[i]
			}
		}
	}
	return contacts, nil
}

func (r *fakeContactRepo) Stream(ctx context.Context, ownerID string) (<-chan []*entity.Contact, error) {
	ch := make(chan []*entity.Contact, 1)
	contacts, _ := r.List(ctx, ownerID)
	ch <- contacts
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]*entity.Participant
}

func newFakeParticipantRepo(participants ...*entity.Participant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{participants: make(map[string]*entity.Participant)}
	for _, p := range participants {
		r.participants[p.ID] = p
	}
	return r
}

func (r *fakeParticipantRepo) Create(ctx context.Context, participant *entity.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[participant.ID] = participant
	return nil
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	participant, ok := r.participants[id]
	if !ok {
		return nil, errors.NotFound("Participant", nil)
	}
	return participant, nil
}
