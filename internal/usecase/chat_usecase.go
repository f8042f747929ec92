package usecase

import (
	"context"
	"strings"

	"skillbridge/internal/domain/entity"
	"skillbridge/internal/domain/repository"
	"skillbridge/internal/infrastructure/ratelimit"
	"skillbridge/pkg/convid"
	"skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

// ChatUseCase orchestrates contact fan-out and the message log. It
// holds no durable state of its own; live delivery rides the
// repository streams, so a sender's view updates through the same
// path as the receiver's.
type ChatUseCase struct {
	messageRepo     repository.MessageRepository
	contactRepo     repository.ContactRepository
	participantRepo repository.ParticipantRepository
	rateLimiter     *ratelimit.RateLimiter
}

func NewChatUseCase(
	messageRepo repository.MessageRepository,
	contactRepo repository.ContactRepository,
	participantRepo repository.ParticipantRepository,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		messageRepo:     messageRepo,
		contactRepo:     contactRepo,
		participantRepo: participantRepo,
		rateLimiter:     rateLimiter,
	}
}

// Close stops the rate limiter's background cleanup.
func (uc *ChatUseCase) Close() {
	uc.rateLimiter.Stop()
}

type ConnectInput struct {
	OtherID   string
	OtherName string
}

type ConnectResponse struct {
	ConversationID string              `json:"conversation_id"`
	Other          *entity.Participant `json:"other"`
}

// Connect materializes both sides of the contact relation for the
// caller and the other participant, and returns the conversation id
// to navigate to. Calling it again for the same pair is a no-op apart
// from the timestamp bump.
func (uc *ChatUseCase) Connect(ctx context.Context, userID string, input ConnectInput) (*ConnectResponse, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if strings.TrimSpace(input.OtherID) == "" {
		// A teacher profile saved without a uid cannot be contacted;
		// rejecting here is what keeps every contact row addressable.
		return nil, errors.BadRequest("Cannot start a conversation with an unidentified participant", nil)
	}
	if input.OtherID == userID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(userID, "connect")
	if !allowed {
		logger.Warn("Connect rate limited: user %s must wait %v", userID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another conversation", waitTime)
	}

	self, err := uc.participantRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error("Connect: caller profile %s not found: %v", userID, err)
		return nil, err
	}

	other, err := uc.participantRepo.GetByID(ctx, input.OtherID)
	if err != nil {
		logger.Error("Connect: other participant %s not found: %v", input.OtherID, err)
		return nil, err
	}

	otherName := input.OtherName
	if otherName == "" {
		otherName = other.DisplayName
	}

	conversationID, err := convid.Resolve(userID, input.OtherID)
	if err != nil {
		return nil, err
	}

	if err := uc.contactRepo.EnsureContact(ctx, conversationID, userID, self.DisplayName, input.OtherID, otherName); err != nil {
		logger.Error("Connect: failed to ensure contact rows for %s: %v", conversationID, err)
		return nil, err
	}

	return &ConnectResponse{
		ConversationID: conversationID,
		Other:          other,
	}, nil
}

// SendMessage appends to the conversation log. Failures are surfaced
// to the caller, never retried here: a blind retry could double-send.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, conversationID, text string) (*entity.Message, error) {
	if senderID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	receiverID, err := convid.Other(conversationID, senderID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, errors.Validation("Message text must not be blank")
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		logger.Warn("SendMessage rate limited: user %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
	}

	if err := uc.messageRepo.Append(ctx, message); err != nil {
		logger.Error("SendMessage: failed to append to conversation %s: %v", conversationID, err)
		return nil, err
	}

	// The message is durable at this point. A failed recency bump
	// only costs list ordering until the next send, so it must not
	// make the send look failed.
	if err := uc.contactRepo.Touch(ctx, conversationID, message.Text, message.SentAt); err != nil {
		logger.Warn("SendMessage: failed to touch contact rows for %s: %v", conversationID, err)
	}

	return message, nil
}

// GetMessages returns the ordered log for the initial view; live
// updates come over the subscription feed.
func (uc *ChatUseCase) GetMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	if userID == "" {
		return nil, 0, errors.Unauthorized("Authentication required", nil)
	}
	if _, err := convid.Other(conversationID, userID); err != nil {
		return nil, 0, err
	}

	return uc.messageRepo.List(ctx, conversationID, limit, offset)
}

// ListContacts returns the caller's conversation list, most recently
// active first. Rows missing required fields are hidden, not
// surfaced as errors; the stored row stays put for repair.
func (uc *ChatUseCase) ListContacts(ctx context.Context, userID string) ([]*entity.Contact, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	contacts, err := uc.contactRepo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	visible := make([]*entity.Contact, 0, len(contacts))
	for _, contact := range contacts {
		if !contact.WellFormed() {
			logger.Warn("Hiding malformed contact row %q for user %s", contact.ConversationID, userID)
			continue
		}
		visible = append(visible, contact)
	}

	return visible, nil
}

// GetContact returns the caller's list row for one conversation;
// NOT_FOUND distinguishes an unknown id from a valid empty
// conversation.
func (uc *ChatUseCase) GetContact(ctx context.Context, userID, conversationID string) (*entity.Contact, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if _, err := convid.Other(conversationID, userID); err != nil {
		return nil, err
	}

	return uc.contactRepo.Get(ctx, userID, conversationID)
}
