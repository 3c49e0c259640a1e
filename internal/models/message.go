package models

import "time"

// ChatMessage is append-only.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chatId"`
	SenderID  string    `db:"sender_id" json:"senderId"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// MessageWithSender is a message joined with its sender's record.
type MessageWithSender struct {
	ChatMessage
	Sender User
}
