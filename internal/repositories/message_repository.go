package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"collab-service/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, chatID string, senderID string, text string) (models.MessageWithSender, error)
	ListByChat(ctx context.Context, chatID string, limit int) ([]models.MessageWithSender, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageWithSenderColumns = `m.id, m.chat_id, m.sender_id, m.text, m.created_at,
        u.id, u.email, u.username, u.first_name, u.last_name, u.bio, u.city, u.avatar_url, u.created_at, u.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessageWithSender(row rowScanner) (models.MessageWithSender, error) {
	var msg models.MessageWithSender
	err := row.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Text, &msg.CreatedAt,
		&msg.Sender.ID, &msg.Sender.Email, &msg.Sender.Username, &msg.Sender.FirstName, &msg.Sender.LastName,
		&msg.Sender.Bio, &msg.Sender.City, &msg.Sender.AvatarURL, &msg.Sender.CreatedAt, &msg.Sender.UpdatedAt)
	return msg, err
}

// Create stores a message and returns it joined with the sender record.
func (r *MessageRepo) Create(ctx context.Context, chatID string, senderID string, text string) (models.MessageWithSender, error) {
	row := r.db.QueryRowxContext(ctx, `WITH m AS (
            INSERT INTO chat_messages (id, chat_id, sender_id, text) VALUES ($1, $2, $3, $4)
            RETURNING id, chat_id, sender_id, text, created_at
        )
        SELECT `+messageWithSenderColumns+` FROM m JOIN users u ON u.id = m.sender_id`,
		uuid.NewString(), chatID, senderID, text)
	return scanMessageWithSender(row)
}

// ListByChat returns the latest messages of a chat in ascending order.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID string, limit int) ([]models.MessageWithSender, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT * FROM (
            SELECT `+messageWithSenderColumns+`
            FROM chat_messages m JOIN users u ON u.id = m.sender_id
            WHERE m.chat_id=$1
            ORDER BY m.created_at DESC LIMIT $2
        ) latest ORDER BY 5 ASC`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.MessageWithSender{}
	for rows.Next() {
		msg, err := scanMessageWithSender(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
