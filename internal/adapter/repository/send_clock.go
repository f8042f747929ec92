package repository

import (
	"sync"
	"time"
)

// sendClock assigns send timestamps that are strictly increasing within
// a conversation, so the (sentAt, id) order matches assignment order
// even for writes landing in the same wall-clock instant. Timestamps
// step by one microsecond on collision, the finest granularity
// Firestore round-trips intact.
type sendClock struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func newSendClock() *sendClock {
	return &sendClock{last: make(map[string]time.Time)}
}

func (c *sendClock) next(conversationID string) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Truncate(time.Microsecond)
	if last, ok := c.last[conversationID]; ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	c.last[conversationID] = now
	return now
}
