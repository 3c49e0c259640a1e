package ws

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/models"
	"collab-service/internal/observability"
	"collab-service/internal/repositories"
)

const MaxMessageLength = 4000

// ChatLoader loads a chat with its participants resolved.
type ChatLoader interface {
	GetDetails(ctx context.Context, chatID string) (models.ChatDetails, error)
}

// MessageWriter persists chat messages.
type MessageWriter interface {
	Create(ctx context.Context, chatID string, senderID string, text string) (models.MessageWithSender, error)
}

// Broadcaster fans events out to live connections.
type Broadcaster interface {
	BroadcastToUser(userID, event string, payload any) error
	BroadcastToProjectMembers(ctx context.Context, projectID, event string, payload any) error
}

// MessageService accepts chat messages from sockets and HTTP alike.
type MessageService struct {
	chats    ChatLoader
	messages MessageWriter
	fanout   Broadcaster
	log      *logrus.Entry
}

func NewMessageService(chats ChatLoader, messages MessageWriter, fanout Broadcaster, logger *logrus.Logger) *MessageService {
	return &MessageService{
		chats:    chats,
		messages: messages,
		fanout:   fanout,
		log:      logger.WithField("component", "message_ingress"),
	}
}

// Send stores a message from senderID in chatID and relays message-sent to the
// other participants. The returned message is the caller's ack.
func (s *MessageService) Send(ctx context.Context, senderID, chatID, text string) (mappers.MessageDTO, error) {
	if strings.TrimSpace(chatID) == "" {
		return mappers.MessageDTO{}, apperrors.Validation([]apperrors.FieldError{{Field: "chatId", Message: "is required"}})
	}

	details, err := s.chats.GetDetails(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return mappers.MessageDTO{}, apperrors.NotFound("chat not found")
	}
	if err != nil {
		return mappers.MessageDTO{}, apperrors.Internal("failed to load chat", err)
	}
	if !details.HasParticipant(senderID) {
		return mappers.MessageDTO{}, apperrors.Forbidden("not a participant of this chat")
	}

	if fields := validateText(text); len(fields) > 0 {
		return mappers.MessageDTO{}, apperrors.Validation(fields)
	}

	stored, err := s.messages.Create(ctx, chatID, senderID, text)
	if err != nil {
		return mappers.MessageDTO{}, apperrors.Internal("failed to store message", err)
	}

	message := mappers.ToMessageDTO(stored)
	event := MessageSentEvent{Message: message, Chat: mappers.ToChatDTO(details)}

	switch details.Type {
	case models.ChatPrivate:
		err = s.fanout.BroadcastToUser(details.OtherParticipant(senderID), EventMessageSent, event)
	case models.ChatProject:
		err = s.fanout.BroadcastToProjectMembers(ctx, *details.ProjectID, EventMessageSent, event)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"chat_id": chatID, "user_id": senderID}).Error("message fan-out failed")
		return mappers.MessageDTO{}, apperrors.Internal("failed to deliver message", err)
	}

	_ = observability.PublishEvent(ctx, "chat.message_sent", observability.EventEnvelope{
		EventType: "chat",
		EventName: "message_sent",
		Payload: map[string]interface{}{
			"message_id": message.ID,
			"chat_id":    chatID,
			"chat_type":  details.Type,
			"sender_id":  senderID,
		},
	}, observability.BuildHeaders("", observability.TraceIDFromContext(ctx)))

	return message, nil
}

func validateText(text string) []apperrors.FieldError {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return []apperrors.FieldError{{Field: "text", Message: "is required"}}
	case utf8.RuneCountInString(trimmed) > MaxMessageLength:
		return []apperrors.FieldError{{Field: "text", Message: "must be at most 4000 characters"}}
	}
	return nil
}
