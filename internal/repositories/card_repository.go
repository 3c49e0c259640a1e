package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"collab-service/internal/models"
)

var ErrCardNotFound = errors.New("card not found")

const cardColumns = `id, project_id, author_id, title, description, reward, status, created_at, published_at`

// CardRepository defines interactions for project cards.
type CardRepository interface {
	Create(ctx context.Context, card models.Card) (models.Card, error)
	GetByID(ctx context.Context, cardID string) (models.Card, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Card, error)
	ListPublished(ctx context.Context, limit int) ([]models.Card, error)
	ListPublishedForUser(ctx context.Context, userID string, limit int) ([]models.Card, error)
	SetStatus(ctx context.Context, cardID string, from models.CardStatus, to models.CardStatus) error
}

// CardRepo is a sqlx-backed implementation.
type CardRepo struct {
	db *sqlx.DB
}

// NewCardRepo constructs a CardRepo.
func NewCardRepo(db *sqlx.DB) *CardRepo {
	return &CardRepo{db: db}
}

// Create persists a draft card.
func (r *CardRepo) Create(ctx context.Context, card models.Card) (models.Card, error) {
	var created models.Card
	err := r.db.GetContext(ctx, &created, `INSERT INTO cards (id, project_id, author_id, title, description, reward, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+cardColumns,
		uuid.NewString(), card.ProjectID, card.AuthorID, card.Title, card.Description, card.Reward, models.CardDraft)
	return created, err
}

// GetByID fetches a single card.
func (r *CardRepo) GetByID(ctx context.Context, cardID string) (models.Card, error) {
	var card models.Card
	err := r.db.GetContext(ctx, &card, `SELECT `+cardColumns+` FROM cards WHERE id=$1`, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, ErrCardNotFound
	}
	return card, err
}

// ListByProject returns every card of a project, newest first.
func (r *CardRepo) ListByProject(ctx context.Context, projectID string) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards, `SELECT `+cardColumns+` FROM cards WHERE project_id=$1 ORDER BY created_at DESC`, projectID)
	return cards, err
}

// ListPublished returns the public feed.
func (r *CardRepo) ListPublished(ctx context.Context, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards, `SELECT `+cardColumns+` FROM cards WHERE status=$1 ORDER BY published_at DESC LIMIT $2`, models.CardPublished, limit)
	return cards, err
}

// ListPublishedForUser returns published cards of projects the user belongs to.
func (r *CardRepo) ListPublishedForUser(ctx context.Context, userID string, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards, `SELECT c.id, c.project_id, c.author_id, c.title, c.description, c.reward, c.status, c.created_at, c.published_at
        FROM cards c JOIN project_members pm ON pm.project_id = c.project_id
        WHERE pm.user_id=$1 AND c.status=$2 ORDER BY c.published_at DESC LIMIT $3`, userID, models.CardPublished, limit)
	return cards, err
}

// SetStatus moves a card from one status to another; ErrCardNotFound when the
// card is missing or not in the expected status.
func (r *CardRepo) SetStatus(ctx context.Context, cardID string, from models.CardStatus, to models.CardStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cards SET status=$3 WHERE id=$1 AND status=$2`, cardID, from, to)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCardNotFound
	}
	return nil
}
