package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"skillbridge/internal/domain/entity"
	"skillbridge/pkg/logger"
)

// MessageSource is the live view of one conversation's ordered log.
type MessageSource interface {
	Stream(ctx context.Context, conversationID string) (<-chan []*entity.Message, error)
}

// ContactSource is the live view of one owner's contact list.
type ContactSource interface {
	Stream(ctx context.Context, ownerID string) (<-chan []*entity.Contact, error)
}

// MessageSender appends a message on behalf of a connected client.
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, conversationID, text string) (*entity.Message, error)
}

// Client represents one WebSocket connection. A user may hold several
// (one per device).
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	// closed flags that Send has been closed; guarded by the
	// manager's mutex.
	closed bool
}

// feed is one upstream store listener fanned out to every subscriber
// of its key. It exists only while subscribers do.
type feed struct {
	cancel      context.CancelFunc
	subscribers map[*Client]bool
	latest      []byte
}

// Manager owns all active connections and their subscriptions,
// keyed by conversation id (message feeds) or owner id (contact
// feeds). Within one feed, snapshots reach subscribers in commit
// order; a subscriber never sees a stale snapshot after a newer one.
type Manager struct {
	messages MessageSource
	contacts ContactSource
	sender   MessageSender

	ctx        context.Context
	Register   chan *Client
	Unregister chan *Client

	mutex        sync.RWMutex
	clients      map[*Client]bool
	messageFeeds map[string]*feed
	contactFeeds map[string]*feed
}

func NewManager(messages MessageSource, contacts ContactSource) *Manager {
	return &Manager{
		messages:     messages,
		contacts:     contacts,
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		clients:      make(map[*Client]bool),
		messageFeeds: make(map[string]*feed),
		contactFeeds: make(map[string]*feed),
	}
}

// SetSender wires the send path; set once during startup.
func (m *Manager) SetSender(sender MessageSender) {
	m.sender = sender
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.ctx = ctx

	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = true
				m.mutex.Unlock()
				logger.Info("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.removeClient(client)
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				m.mutex.Lock()
				for client := range m.clients {
					delete(m.clients, client)
					client.closed = true
					close(client.Send)
				}
				for key, f := range m.messageFeeds {
					f.cancel()
					delete(m.messageFeeds, key)
				}
				for key, f := range m.contactFeeds {
					f.cancel()
					delete(m.contactFeeds, key)
				}
				m.mutex.Unlock()
				return
			}
		}
	}()
}

// SubscribeMessages attaches a client to a conversation's live feed,
// opening the upstream listener if this is the first subscriber. The
// current snapshot, if any has arrived, is replayed immediately.
func (m *Manager) SubscribeMessages(client *Client, conversationID string) error {
	return subscribeFeed(m, client, conversationID, m.messageFeeds,
		func(ctx context.Context) (<-chan []*entity.Message, error) {
			return m.messages.Stream(ctx, conversationID)
		},
		func(messages []*entity.Message) []byte {
			return marshalFrame(MessageTypeMessagesSnapshot, conversationID, messages)
		})
}

// SubscribeContacts attaches a client to its own contact-list feed.
// Rows failing well-formedness are hidden, not surfaced as errors.
func (m *Manager) SubscribeContacts(client *Client) error {
	ownerID := client.UserID
	return subscribeFeed(m, client, ownerID, m.contactFeeds,
		func(ctx context.Context) (<-chan []*entity.Contact, error) {
			return m.contacts.Stream(ctx, ownerID)
		},
		func(contacts []*entity.Contact) []byte {
			visible := make([]*entity.Contact, 0, len(contacts))
			for _, contact := range contacts {
				if contact.WellFormed() {
					visible = append(visible, contact)
				}
			}
			return marshalFrame(MessageTypeContactsSnapshot, "", visible)
		})
}

func subscribeFeed[T any](m *Manager, client *Client, key string, feeds map[string]*feed, open func(context.Context) (<-chan []T, error), frame func([]T) []byte) error {
	m.mutex.Lock()

	f, ok := feeds[key]
	if !ok {
		ctx, cancel := context.WithCancel(m.ctx)
		ch, err := open(ctx)
		if err != nil {
			cancel()
			m.mutex.Unlock()
			return err
		}
		f = &feed{cancel: cancel, subscribers: make(map[*Client]bool)}
		feeds[key] = f
		go runSnapshots(m, key, f, feeds, ch, frame)
	}

	f.subscribers[client] = true
	// Replay before unlocking: once the mutex drops, the feed may
	// deliver a newer snapshot, and the replay must not land after it.
	if f.latest != nil {
		m.deliverLocked(client, f.latest)
	}
	m.mutex.Unlock()

	return nil
}

// UnsubscribeMessages detaches a client from a conversation feed,
// cancelling the upstream listener when the last subscriber leaves.
func (m *Manager) UnsubscribeMessages(client *Client, conversationID string) {
	m.mutex.Lock()
	m.detach(client, conversationID, m.messageFeeds)
	m.mutex.Unlock()
}

func (m *Manager) UnsubscribeContacts(client *Client) {
	m.mutex.Lock()
	m.detach(client, client.UserID, m.contactFeeds)
	m.mutex.Unlock()
}

// detach is called with the mutex held.
func (m *Manager) detach(client *Client, key string, feeds map[string]*feed) {
	f, ok := feeds[key]
	if !ok {
		return
	}
	delete(f.subscribers, client)
	if len(f.subscribers) == 0 {
		f.cancel()
		delete(feeds, key)
	}
}

// removeClient drops a disconnected client from every feed so no
// dangling subscription keeps pushing to it.
func (m *Manager) removeClient(client *Client) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client]; !ok {
		return
	}
	delete(m.clients, client)

	for key := range m.messageFeeds {
		m.detach(client, key, m.messageFeeds)
	}
	for key := range m.contactFeeds {
		m.detach(client, key, m.contactFeeds)
	}

	client.closed = true
	close(client.Send)
}

func runSnapshots[T any](m *Manager, key string, f *feed, feeds map[string]*feed, ch <-chan []T, frame func([]T) []byte) {
	for snapshot := range ch {
		payload := frame(snapshot)

		m.mutex.Lock()
		if feeds[key] != f {
			m.mutex.Unlock()
			return
		}
		f.latest = payload
		for client := range f.subscribers {
			m.deliverLocked(client, payload)
		}
		m.mutex.Unlock()
	}

	// Upstream closed: either our cancel (normal release) or a
	// terminal stream failure. Drop the feed entry either way so a
	// later subscribe reopens cleanly.
	m.mutex.Lock()
	if feeds[key] == f {
		f.cancel()
		delete(feeds, key)
	}
	m.mutex.Unlock()

	if m.ctx.Err() == nil {
		logger.Warn("Feed %s closed upstream", key)
	}
}

// deliver enqueues a frame for one client.
func (m *Manager) deliver(client *Client, payload []byte) {
	m.mutex.Lock()
	m.deliverLocked(client, payload)
	m.mutex.Unlock()
}

// deliverLocked runs with the mutex held; the same lock guards the
// close of Send, so a frame can never be sent on a closed channel. A
// client whose buffer is full is disconnected rather than skipped:
// skipping would let it observe an older snapshot after a newer one
// was produced.
func (m *Manager) deliverLocked(client *Client, payload []byte) {
	if client.closed {
		return
	}

	select {
	case client.Send <- payload:
	default:
		logger.Warn("Client %s too slow, disconnecting", client.UserID)
		go func() {
			select {
			case m.Unregister <- client:
			case <-m.ctx.Done():
			}
		}()
	}
}

// ReadPump reads frames from the connection until it drops.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Client %s read error: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump writes queued frames to the connection in order.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("Client %s write error: %v", c.UserID, err)
			return
		}
	}
}
