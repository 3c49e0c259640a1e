package models

import "time"

type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatProject ChatType = "project"
)

// Chat is either a private chat between User1ID and User2ID (ordered, unique per
// pair) or a project chat whose participants are the project's current members.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	Type      ChatType  `db:"type" json:"type"`
	User1ID   *string   `db:"user1_id" json:"user1Id,omitempty"`
	User2ID   *string   `db:"user2_id" json:"user2Id,omitempty"`
	ProjectID *string   `db:"project_id" json:"projectId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// OtherParticipant returns the private-chat participant that is not userID.
func (c Chat) OtherParticipant(userID string) string {
	if c.User1ID == nil || c.User2ID == nil {
		return ""
	}
	if *c.User1ID == userID {
		return *c.User2ID
	}
	return *c.User1ID
}

// ChatDetails is a chat with its participant records resolved.
type ChatDetails struct {
	Chat
	Participants []User
	Project      *Project
}

// HasParticipant reports whether userID is among the resolved participants.
func (d ChatDetails) HasParticipant(userID string) bool {
	for _, u := range d.Participants {
		if u.ID == userID {
			return true
		}
	}
	return false
}
