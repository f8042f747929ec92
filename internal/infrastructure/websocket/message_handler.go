package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"skillbridge/pkg/convid"
	apperrors "skillbridge/pkg/errors"
	"skillbridge/pkg/logger"
)

// Frame types of the client protocol.
const (
	MessageTypePing                = "ping"
	MessageTypePong                = "pong"
	MessageTypeSubscribeMessages   = "subscribe_messages"
	MessageTypeUnsubscribeMessages = "unsubscribe_messages"
	MessageTypeSubscribeContacts   = "subscribe_contacts"
	MessageTypeUnsubscribeContacts = "unsubscribe_contacts"
	MessageTypeSendMessage         = "send_message"
	MessageTypeMessageSent         = "message_sent"
	MessageTypeMessagesSnapshot    = "messages_snapshot"
	MessageTypeContactsSnapshot    = "contacts_snapshot"
	MessageTypeError               = "error"
)

type WSMessage struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

type outFrame struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type sendMessageData struct {
	Text string `json:"text"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleClientMessage dispatches one inbound frame.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("Client %s sent an unparsable frame: %v", client.UserID, err)
		m.sendError(client, "", apperrors.BadRequest("Invalid frame format", err))
		return
	}

	switch msg.Type {
	case MessageTypePing:
		m.sendFrame(client, outFrame{Type: MessageTypePong})

	case MessageTypeSubscribeMessages:
		m.handleSubscribeMessages(client, msg.ConversationID)

	case MessageTypeUnsubscribeMessages:
		if msg.ConversationID != "" {
			m.UnsubscribeMessages(client, msg.ConversationID)
		}

	case MessageTypeSubscribeContacts:
		if err := m.SubscribeContacts(client); err != nil {
			m.sendError(client, "", err)
		}

	case MessageTypeUnsubscribeContacts:
		m.UnsubscribeContacts(client)

	case MessageTypeSendMessage:
		m.handleSendMessage(client, msg)

	default:
		logger.Warn("Client %s sent unknown frame type %q", client.UserID, msg.Type)
		m.sendError(client, "", apperrors.BadRequest("Unknown frame type", nil))
	}
}

// A client may only open a message feed for a conversation it
// participates in; the id itself encodes the membership.
func (m *Manager) handleSubscribeMessages(client *Client, conversationID string) {
	if _, _, err := convid.Split(conversationID); err != nil {
		m.sendError(client, conversationID, err)
		return
	}
	if !convid.HasParticipant(conversationID, client.UserID) {
		m.sendError(client, conversationID, apperrors.Forbidden("User is not a participant in this conversation", nil))
		return
	}

	if err := m.SubscribeMessages(client, conversationID); err != nil {
		m.sendError(client, conversationID, err)
	}
}

// handleSendMessage appends through the same path as the HTTP handler;
// the sender's own view updates when the feed snapshot arrives, not
// through a local echo.
func (m *Manager) handleSendMessage(client *Client, msg WSMessage) {
	if m.sender == nil {
		m.sendError(client, msg.ConversationID, apperrors.Internal("Send path is not configured", nil))
		return
	}

	var data sendMessageData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			m.sendError(client, msg.ConversationID, apperrors.BadRequest("Invalid send_message data", err))
			return
		}
	}

	message, err := m.sender.SendMessage(m.ctx, client.UserID, msg.ConversationID, data.Text)
	if err != nil {
		m.sendError(client, msg.ConversationID, err)
		return
	}

	m.sendFrame(client, outFrame{
		Type:           MessageTypeMessageSent,
		ConversationID: message.ConversationID,
		Data:           message,
	})
}

func (m *Manager) sendError(client *Client, conversationID string, err error) {
	data := errorData{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		data.Code = appErr.Code
		data.Message = appErr.Message
	}

	m.sendFrame(client, outFrame{
		Type:           MessageTypeError,
		ConversationID: conversationID,
		Data:           data,
	})
}

func (m *Manager) sendFrame(client *Client, frame outFrame) {
	frame.Timestamp = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to marshal %s frame: %v", frame.Type, err)
		return
	}
	m.deliver(client, payload)
}

func marshalFrame(frameType, conversationID string, data interface{}) []byte {
	payload, err := json.Marshal(outFrame{
		Type:           frameType,
		ConversationID: conversationID,
		Data:           data,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("Failed to marshal %s frame: %v", frameType, err)
		return []byte(`{"type":"error"}`)
	}
	return payload
}
