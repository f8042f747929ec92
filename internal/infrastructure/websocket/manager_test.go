package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge/internal/domain/entity"
	"skillbridge/pkg/errors"
)

// fakeMessageSource hands out one channel per stream and remembers the
// stream context so tests can observe cancellation.
type fakeMessageSource struct {
	mu      sync.Mutex
	streams map[string]chan []*entity.Message
	ctxs    map[string]context.Context
	opened  int
}

func newFakeMessageSource() *fakeMessageSource {
	return &fakeMessageSource{
		streams: make(map[string]chan []*entity.Message),
		ctxs:    make(map[string]context.Context),
	}
}

func (s *fakeMessageSource) Stream(ctx context.Context, conversationID string) (<-chan []*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []*entity.Message, 1)
	s.streams[conversationID] = ch
	s.ctxs[conversationID] = ctx
	s.opened++

	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (s *fakeMessageSource) push(conversationID string, messages []*entity.Message) {
	s.mu.Lock()
	ch := s.streams[conversationID]
	s.mu.Unlock()
	ch <- messages
}

func (s *fakeMessageSource) streamCtx(conversationID string) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctxs[conversationID]
}

func (s *fakeMessageSource) openedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

type fakeContactSource struct {
	mu      sync.Mutex
	streams map[string]chan []*entity.Contact
}

func newFakeContactSource() *fakeContactSource {
	return &fakeContactSource{streams: make(map[string]chan []*entity.Contact)}
}

func (s *fakeContactSource) Stream(ctx context.Context, ownerID string) (<-chan []*entity.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []*entity.Contact, 1)
	s.streams[ownerID] = ch
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (s *fakeContactSource) push(ownerID string, contacts []*entity.Contact) {
	s.mu.Lock()
	ch := s.streams[ownerID]
	s.mu.Unlock()
	ch <- contacts
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
	reply *entity.Message
}

func (s *fakeSender) SendMessage(ctx context.Context, senderID, conversationID, text string) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, text)
	return s.reply, nil
}

func newTestManager(t *testing.T) (*Manager, *fakeMessageSource, *fakeContactSource) {
	t.Helper()

	messages := newFakeMessageSource()
	contacts := newFakeContactSource()
	manager := NewManager(messages, contacts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	manager.Start(ctx)

	return manager, messages, contacts
}

func newTestClient(userID string) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 16)}
}

func receiveFrame(t *testing.T, client *Client) outFrame {
	t.Helper()

	select {
	case payload := <-client.Send:
		var frame struct {
			Type           string          `json:"type"`
			ConversationID string          `json:"conversation_id"`
			Data           json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &frame))
		return outFrame{Type: frame.Type, ConversationID: frame.ConversationID, Data: frame.Data}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return outFrame{}
	}
}

func TestSubscribeMessagesDeliversSnapshotsInOrder(t *testing.T) {
	manager, messages, _ := newTestManager(t)
	client := newTestClient("u1")

	require.NoError(t, manager.SubscribeMessages(client, "u1_u2"))

	messages.push("u1_u2", []*entity.Message{{ID: "m1", Text: "Hello"}})
	frame := receiveFrame(t, client)
	assert.Equal(t, MessageTypeMessagesSnapshot, frame.Type)
	assert.Equal(t, "u1_u2", frame.ConversationID)

	var first []*entity.Message
	require.NoError(t, json.Unmarshal(frame.Data.(json.RawMessage), &first))
	require.Len(t, first, 1)
	assert.Equal(t, "Hello", first[0].Text)

	messages.push("u1_u2", []*entity.Message{{ID: "m1", Text: "Hello"}, {ID: "m2", Text: "Hi back"}})
	frame = receiveFrame(t, client)

	var second []*entity.Message
	require.NoError(t, json.Unmarshal(frame.Data.(json.RawMessage), &second))
	require.Len(t, second, 2)
	assert.Equal(t, "Hello", second[0].Text)
	assert.Equal(t, "Hi back", second[1].Text)
}

func TestSecondSubscriberSharesFeedAndGetsCurrentSnapshot(t *testing.T) {
	manager, messages, _ := newTestManager(t)
	sender := newTestClient("u1")
	receiver := newTestClient("u2")

	require.NoError(t, manager.SubscribeMessages(sender, "u1_u2"))
	messages.push("u1_u2", []*entity.Message{{ID: "m1", Text: "Hello"}})
	receiveFrame(t, sender)

	// The late joiner reuses the live feed and is caught up
	// immediately.
	require.NoError(t, manager.SubscribeMessages(receiver, "u1_u2"))
	frame := receiveFrame(t, receiver)
	assert.Equal(t, MessageTypeMessagesSnapshot, frame.Type)
	assert.Equal(t, 1, messages.openedCount())

	// Both see the next snapshot.
	messages.push("u1_u2", []*entity.Message{{ID: "m1"}, {ID: "m2"}})
	assert.Equal(t, MessageTypeMessagesSnapshot, receiveFrame(t, sender).Type)
	assert.Equal(t, MessageTypeMessagesSnapshot, receiveFrame(t, receiver).Type)
}

func TestUnsubscribeReleasesUpstreamListener(t *testing.T) {
	manager, messages, _ := newTestManager(t)
	client := newTestClient("u1")

	require.NoError(t, manager.SubscribeMessages(client, "u1_u2"))
	streamCtx := messages.streamCtx("u1_u2")
	require.NotNil(t, streamCtx)

	manager.UnsubscribeMessages(client, "u1_u2")

	select {
	case <-streamCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("upstream listener was not cancelled")
	}
}

func TestDisconnectReleasesAllSubscriptions(t *testing.T) {
	manager, messages, _ := newTestManager(t)
	client := newTestClient("u1")

	manager.Register <- client
	require.NoError(t, manager.SubscribeMessages(client, "u1_u2"))
	require.NoError(t, manager.SubscribeContacts(client))

	streamCtx := messages.streamCtx("u1_u2")
	manager.Unregister <- client

	select {
	case <-streamCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("message feed survived client disconnect")
	}

	// Send channel is closed as part of the release.
	select {
	case _, ok := <-client.Send:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("client send channel was not closed")
	}
}

func TestFramesAfterDisconnectAreDropped(t *testing.T) {
	manager, _, _ := newTestManager(t)
	client := newTestClient("u1")

	manager.Register <- client
	require.NoError(t, manager.SubscribeMessages(client, "u1_u2"))

	manager.Unregister <- client
	select {
	case _, ok := <-client.Send:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("client send channel was not closed")
	}

	// A delivery racing the disconnect must be dropped, not sent on
	// the closed channel.
	manager.HandleClientMessage(client, []byte(`{"type":"ping"}`))
}

func TestContactSnapshotHidesMalformedRows(t *testing.T) {
	manager, _, contacts := newTestManager(t)
	client := newTestClient("u1")

	require.NoError(t, manager.SubscribeContacts(client))

	contacts.push("u1", []*entity.Contact{
		{ConversationID: "u1_u2", OtherID: "u2", OtherName: "Bob"},
		{ConversationID: "u1_u9", OtherName: "Ghost"}, // missing other id
	})

	frame := receiveFrame(t, client)
	assert.Equal(t, MessageTypeContactsSnapshot, frame.Type)

	var visible []*entity.Contact
	require.NoError(t, json.Unmarshal(frame.Data.(json.RawMessage), &visible))
	require.Len(t, visible, 1)
	assert.Equal(t, "u1_u2", visible[0].ConversationID)
}

func TestHandleClientMessageSubscribeValidation(t *testing.T) {
	manager, _, _ := newTestManager(t)
	client := newTestClient("u3")

	// Not a participant of the conversation.
	manager.HandleClientMessage(client, []byte(`{"type":"subscribe_messages","conversation_id":"u1_u2"}`))
	frame := receiveFrame(t, client)
	assert.Equal(t, MessageTypeError, frame.Type)

	var data errorData
	require.NoError(t, json.Unmarshal(frame.Data.(json.RawMessage), &data))
	assert.Equal(t, "FORBIDDEN", data.Code)

	// Malformed conversation id.
	manager.HandleClientMessage(client, []byte(`{"type":"subscribe_messages","conversation_id":"nope"}`))
	frame = receiveFrame(t, client)
	require.NoError(t, json.Unmarshal(frame.Data.(json.RawMessage), &data))
	assert.Equal(t, "BAD_REQUEST", data.Code)
}

func TestHandleClientMessageSend(t *testing.T) {
	manager, _, _ := newTestManager(t)
	sender := &fakeSender{reply: &entity.Message{ID: "m1", ConversationID: "u1_u2", SenderID: "u1", Text: "Hello"}}
	manager.SetSender(sender)

	client := newTestClient("u1")
	manager.HandleClientMessage(client, []byte(`{"type":"send_message","conversation_id":"u1_u2","data":{"text":"Hello"}}`))

	frame := receiveFrame(t, client)
	assert.Equal(t, MessageTypeMessageSent, frame.Type)
	assert.Equal(t, []string{"Hello"}, sender.sent)
}

func TestHandleClientMessageSendFailureSurfacesError(t *testing.T) {
	manager, _, _ := newTestManager(t)
	manager.SetSender(&fakeSender{err: errors.Validation("Message text must not be blank")})

	client := newTestClient("u1")
	manager.HandleClientMessage(client, []byte(`{"type":"send_message","conversation_id":"u1_u2","data":{"text":""}}`))

	frame := receiveFrame(t, client)
	assert.Equal(t, MessageTypeError, frame.Type)

	var data errorData
	require.NoError(t, json.Unmarshal(frame.Data.(json.RawMessage), &data))
	assert.Equal(t, "VALIDATION_ERROR", data.Code)
}

func TestHandleClientMessagePing(t *testing.T) {
	manager, _, _ := newTestManager(t)
	client := newTestClient("u1")

	manager.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	assert.Equal(t, MessageTypePong, receiveFrame(t, client).Type)
}
