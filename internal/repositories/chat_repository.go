package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"collab-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, type, user1_id, user2_id, project_id, created_at`

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	GetByID(ctx context.Context, chatID string) (models.Chat, error)
	GetDetails(ctx context.Context, chatID string) (models.ChatDetails, error)
	CreateOrGetPrivate(ctx context.Context, userID string, otherID string) (models.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]models.ChatDetails, error)
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// GetByID fetches a chat by id.
func (r *ChatRepo) GetByID(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetDetails fetches a chat with its participants: both users of a private
// chat, or the project and its members for a project chat.
func (r *ChatRepo) GetDetails(ctx context.Context, chatID string) (models.ChatDetails, error) {
	chat, err := r.GetByID(ctx, chatID)
	if err != nil {
		return models.ChatDetails{}, err
	}
	return r.resolve(ctx, chat)
}

func (r *ChatRepo) resolve(ctx context.Context, chat models.Chat) (models.ChatDetails, error) {
	details := models.ChatDetails{Chat: chat}

	switch chat.Type {
	case models.ChatPrivate:
		if chat.User1ID == nil || chat.User2ID == nil {
			return models.ChatDetails{}, errors.New("private chat without participants")
		}
		err := r.db.SelectContext(ctx, &details.Participants, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY username`,
			pq.Array([]string{*chat.User1ID, *chat.User2ID}))
		if err != nil {
			return models.ChatDetails{}, err
		}
	case models.ChatProject:
		if chat.ProjectID == nil {
			return models.ChatDetails{}, errors.New("project chat without project")
		}
		var project models.Project
		if err := r.db.GetContext(ctx, &project, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, *chat.ProjectID); err != nil {
			return models.ChatDetails{}, err
		}
		details.Project = &project
		err := r.db.SelectContext(ctx, &details.Participants, `SELECT u.id, u.email, u.username, u.password_hash, u.first_name, u.last_name, u.bio, u.city, u.avatar_url, u.created_at, u.updated_at
            FROM project_members pm JOIN users u ON u.id = pm.user_id
            WHERE pm.project_id=$1 ORDER BY pm.joined_at ASC`, project.ID)
		if err != nil {
			return models.ChatDetails{}, err
		}
	}
	return details, nil
}

// CreateOrGetPrivate returns the unique private chat of the pair, creating it when missing.
func (r *ChatRepo) CreateOrGetPrivate(ctx context.Context, userID string, otherID string) (models.Chat, error) {
	if userID == otherID {
		return models.Chat{}, errors.New("cannot create chat with self")
	}
	user1, user2 := models.OrderPair(userID, otherID)

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE type=$1 AND user1_id=$2 AND user2_id=$3`, models.ChatPrivate, user1, user2)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	err = r.db.GetContext(ctx, &chat, `INSERT INTO chats (id, type, user1_id, user2_id) VALUES ($1, $2, $3, $4)
        ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = EXCLUDED.user1_id
        RETURNING `+chatColumns, uuid.NewString(), models.ChatPrivate, user1, user2)
	return chat, err
}

// ListForUser returns the caller's private chats and the chats of every project they belong to.
func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]models.ChatDetails, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `SELECT c.id, c.type, c.user1_id, c.user2_id, c.project_id, c.created_at FROM chats c
        WHERE c.user1_id=$1 OR c.user2_id=$1
           OR c.project_id IN (SELECT project_id FROM project_members WHERE user_id=$1)
        ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.ChatDetails, 0, len(chats))
	for _, chat := range chats {
		details, err := r.resolve(ctx, chat)
		if err != nil {
			return nil, err
		}
		result = append(result, details)
	}
	return result, nil
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
            SELECT 1 FROM chats c WHERE c.id=$1 AND (
                c.user1_id=$2 OR c.user2_id=$2
                OR EXISTS(SELECT 1 FROM project_members pm WHERE pm.project_id = c.project_id AND pm.user_id=$2)
            ))`, chatID, userID)
	return exists, err
}
