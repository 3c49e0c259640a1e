package models

import (
	"sort"
	"time"
)

// RelationshipStatus is the stored state between User1 and User2.
type RelationshipStatus string

const (
	RelationshipNone        RelationshipStatus = "NONE"
	RelationshipRequest1To2 RelationshipStatus = "REQUEST_1_TO_2"
	RelationshipRequest2To1 RelationshipStatus = "REQUEST_2_TO_1"
	RelationshipFriends     RelationshipStatus = "FRIENDS"
)

// Relationship is stored once per unordered pair with User1ID < User2ID.
type Relationship struct {
	User1ID   string             `db:"user1_id" json:"user1Id"`
	User2ID   string             `db:"user2_id" json:"user2Id"`
	Status    RelationshipStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `db:"updated_at" json:"updatedAt"`
}

// OrderPair returns the two ids in storage order.
func OrderPair(a, b string) (string, string) {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0], pair[1]
}

// RequestFrom returns the pending status meaning "from sent a request to the other side".
func RequestFrom(from, other string) RelationshipStatus {
	user1, _ := OrderPair(from, other)
	if user1 == from {
		return RelationshipRequest1To2
	}
	return RelationshipRequest2To1
}

// Other returns the participant that is not userID.
func (r Relationship) Other(userID string) string {
	if r.User1ID == userID {
		return r.User2ID
	}
	return r.User1ID
}
