package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"collab-service/internal/models"
)

// RelationshipRepository abstracts friendship persistence. Callers pass ids in
// any order; the repository stores them ordered.
type RelationshipRepository interface {
	Get(ctx context.Context, userA, userB string) (*models.Relationship, error)
	Set(ctx context.Context, userA, userB string, status models.RelationshipStatus) (models.Relationship, error)
	Delete(ctx context.Context, userA, userB string) error
	ListFriends(ctx context.Context, userID string) ([]models.User, error)
	ListPending(ctx context.Context, userID string) ([]models.Relationship, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

// RelationshipRepo is a sqlx implementation of RelationshipRepository.
type RelationshipRepo struct {
	db *sqlx.DB
}

// NewRelationshipRepo constructs a RelationshipRepo.
func NewRelationshipRepo(db *sqlx.DB) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

// Get returns the stored relationship or nil when the pair never interacted.
func (r *RelationshipRepo) Get(ctx context.Context, userA, userB string) (*models.Relationship, error) {
	user1, user2 := models.OrderPair(userA, userB)
	var rel models.Relationship
	err := r.db.GetContext(ctx, &rel, `SELECT user1_id, user2_id, status, created_at, updated_at FROM relationships WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// Set upserts the status of the pair.
func (r *RelationshipRepo) Set(ctx context.Context, userA, userB string, status models.RelationshipStatus) (models.Relationship, error) {
	user1, user2 := models.OrderPair(userA, userB)
	var rel models.Relationship
	err := r.db.GetContext(ctx, &rel, `INSERT INTO relationships (user1_id, user2_id, status) VALUES ($1, $2, $3)
        ON CONFLICT (user1_id, user2_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
        RETURNING user1_id, user2_id, status, created_at, updated_at`, user1, user2, status)
	return rel, err
}

// Delete removes the pair's row.
func (r *RelationshipRepo) Delete(ctx context.Context, userA, userB string) error {
	user1, user2 := models.OrderPair(userA, userB)
	_, err := r.db.ExecContext(ctx, `DELETE FROM relationships WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	return err
}

// ListFriends returns the users in a FRIENDS relationship with userID.
func (r *RelationshipRepo) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT u.id, u.email, u.username, u.password_hash, u.first_name, u.last_name, u.bio, u.city, u.avatar_url, u.created_at, u.updated_at
        FROM relationships rel
        JOIN users u ON u.id = CASE WHEN rel.user1_id=$1 THEN rel.user2_id ELSE rel.user1_id END
        WHERE (rel.user1_id=$1 OR rel.user2_id=$1) AND rel.status=$2
        ORDER BY u.username`, userID, models.RelationshipFriends)
	return users, err
}

// ListPending returns relationships with an open request involving userID.
func (r *RelationshipRepo) ListPending(ctx context.Context, userID string) ([]models.Relationship, error) {
	var rels []models.Relationship
	err := r.db.SelectContext(ctx, &rels, `SELECT user1_id, user2_id, status, created_at, updated_at FROM relationships
        WHERE (user1_id=$1 OR user2_id=$1) AND status IN ($2, $3)
        ORDER BY updated_at DESC`, userID, models.RelationshipRequest1To2, models.RelationshipRequest2To1)
	return rels, err
}

// AreFriends reports whether the pair is in FRIENDS state.
func (r *RelationshipRepo) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	user1, user2 := models.OrderPair(userA, userB)
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM relationships WHERE user1_id=$1 AND user2_id=$2 AND status=$3)`, user1, user2, models.RelationshipFriends)
	return exists, err
}
