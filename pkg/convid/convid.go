// Package convid derives the canonical conversation id for a pair of
// participant ids. The id is the lexicographically smaller id, the
// separator, then the larger id, so both participants always derive the
// same value without a lookup.
package convid

import (
	"strings"

	"skillbridge/pkg/errors"
)

// Separator joins the two participant ids. Participant ids must never
// contain it; distinct unordered pairs then resolve to distinct ids.
const Separator = "_"

// Resolve returns the conversation id for the unordered pair (idA, idB).
func Resolve(idA, idB string) (string, error) {
	if err := validate(idA); err != nil {
		return "", err
	}
	if err := validate(idB); err != nil {
		return "", err
	}

	if idA < idB {
		return idA + Separator + idB, nil
	}
	return idB + Separator + idA, nil
}

// Split returns the two participant ids encoded in a conversation id,
// smaller first.
func Split(conversationID string) (string, string, error) {
	parts := strings.Split(conversationID, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.BadRequest("Malformed conversation id", nil)
	}
	return parts[0], parts[1], nil
}

// Other returns the participant on the far side of a conversation from
// selfID. It fails if selfID is not a participant.
func Other(conversationID, selfID string) (string, error) {
	a, b, err := Split(conversationID)
	if err != nil {
		return "", err
	}
	switch selfID {
	case a:
		return b, nil
	case b:
		return a, nil
	}
	return "", errors.Forbidden("User is not a participant in this conversation", nil)
}

// HasParticipant reports whether userID is one of the two participants
// encoded in conversationID.
func HasParticipant(conversationID, userID string) bool {
	a, b, err := Split(conversationID)
	if err != nil {
		return false
	}
	return userID == a || userID == b
}

func validate(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.BadRequest("Participant id is required", nil)
	}
	if strings.Contains(id, Separator) {
		return errors.BadRequest("Participant id must not contain '"+Separator+"'", nil)
	}
	return nil
}
