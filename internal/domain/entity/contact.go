package entity

import "time"

// Contact is one participant's list row for a conversation with the
// other party. One row exists per (owner, conversation); the owner is
// implicit in the row's storage partition and each row records the
// other participant, never its own owner.
type Contact struct {
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	OtherID        string    `json:"other_id" firestore:"otherUserId"`
	OtherName      string    `json:"other_name" firestore:"otherUserName"`
	LastMessage    string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	UpdatedAt      time.Time `json:"updated_at" firestore:"updatedAt"`
}

// WellFormed reports whether the row carries everything a list view
// needs. Rows that fail are hidden from views but left in place for
// repair.
func (c *Contact) WellFormed() bool {
	return c.ConversationID != "" && c.OtherID != "" && c.OtherName != ""
}
