package entity

import "time"

// Skill is one participant's offer to teach something; browsing a
// skill's teachers is where a connect is initiated from.
type Skill struct {
	ID        string    `json:"id" firestore:"id"`
	OwnerID   string    `json:"owner_id" firestore:"ownerId"`
	OwnerName string    `json:"owner_name" firestore:"ownerName"`
	Teach     string    `json:"teach" firestore:"teach"`
	Learn     string    `json:"learn,omitempty" firestore:"learn,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
