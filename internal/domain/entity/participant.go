package entity

import "time"

// Participant is the authenticated-user identity owned by the auth
// collaborator. The messaging core treats it as immutable read-only
// input.
type Participant struct {
	ID          string    `json:"id" firestore:"id"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
