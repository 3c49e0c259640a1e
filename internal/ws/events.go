package ws

import (
	"encoding/json"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
)

// Socket event names.
const (
	EventSendMessage = "send-message"
	EventMessageSent = "message-sent"
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventTyping      = "typing"
	EventAck         = "ack"

	EventFriendRequest    = "friend-request"
	EventFriendAccepted   = "friend-accepted"
	EventProjectJoined    = "project-joined"
	EventPaymentConfirmed = "payment-confirmed"
)

// Inbound is a client frame. ID correlates the ack.
type Inbound struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server frame: a pushed event or an ack carrying data or error.
type Outbound struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  any             `json:"data,omitempty"`
	Error *apperrors.Body `json:"error,omitempty"`
}

type SendMessageRequest struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

type SendMessageAck struct {
	Message mappers.MessageDTO `json:"message"`
}

type MessageSentEvent struct {
	Message mappers.MessageDTO `json:"message"`
	Chat    mappers.ChatDTO    `json:"chat"`
}

type ChatRoomRequest struct {
	ChatID string `json:"chatId"`
}

type TypingEvent struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// ChatRoom names the room of a chat.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

func encode(frame Outbound) ([]byte, error) {
	return json.Marshal(frame)
}
