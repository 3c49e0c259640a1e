package models

import "time"

// CardStatus tracks a paid job posting through checkout.
type CardStatus string

const (
	CardDraft          CardStatus = "draft"
	CardPendingPayment CardStatus = "pending_payment"
	CardPublished      CardStatus = "published"
	CardClosed         CardStatus = "closed"
)

// Card is a job posting attached to a project. It becomes public once paid.
type Card struct {
	ID          string     `db:"id" json:"id"`
	ProjectID   string     `db:"project_id" json:"projectId"`
	AuthorID    string     `db:"author_id" json:"authorId"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Reward      float64    `db:"reward" json:"reward"`
	Status      CardStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	PublishedAt *time.Time `db:"published_at" json:"publishedAt,omitempty"`
}
