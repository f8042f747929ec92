package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSendClockStrictlyIncreasesPerConversation(t *testing.T) {
	clock := newSendClock()

	var last time.Time
	for i := 0; i < 1000; i++ {
		next := clock.next("u1_u2")
		assert.True(t, next.After(last), "iteration %d", i)
		last = next
	}
}

func TestSendClockConversationsAreIndependent(t *testing.T) {
	clock := newSendClock()

	a := clock.next("u1_u2")
	b := clock.next("u1_u3")

	// Separate conversations may share an instant; only ordering
	// within one log matters.
	assert.False(t, b.Before(a.Add(-time.Second)))
	assert.True(t, clock.next("u1_u2").After(a))
	assert.True(t, clock.next("u1_u3").After(b))
}
