package models

import "time"

const (
	ProjectRoleOwner  = "owner"
	ProjectRoleMember = "member"
)

// Project groups members, cards, tasks and one project chat.
type Project struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"ownerId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ProjectMember is a user joined with its membership row.
type ProjectMember struct {
	User
	Role     string    `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}
