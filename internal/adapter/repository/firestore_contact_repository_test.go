package repository

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skillbridge/internal/domain/entity"
)

// Merge writes must be map-shaped; the client rejects MergeAll with
// struct data before any RPC is made.
func TestContactWriteIsMapShaped(t *testing.T) {
	at := time.Now()

	assert.Equal(t, map[string]interface{}{
		"conversationId": "u1_u2",
		"otherUserId":    "u2",
		"otherUserName":  "Bob",
		"updatedAt":      at,
	}, contactWrite("u1_u2", "u2", "Bob", at))
}

func TestContactWriteFieldsMatchEntityTags(t *testing.T) {
	tags := make(map[string]bool)
	contactType := reflect.TypeOf(entity.Contact{})
	for i := 0; i < contactType.NumField(); i++ {
		tag := strings.Split(contactType.Field(i).Tag.Get("firestore"), ",")[0]
		tags[tag] = true
	}

	for field := range contactWrite("u1_u2", "u2", "Bob", time.Now()) {
		assert.True(t, tags[field], "field %q does not match a firestore tag on entity.Contact", field)
	}
}
