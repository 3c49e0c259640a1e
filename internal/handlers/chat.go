package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/repositories"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 500
)

// MessageSender is the message ingress shared with the socket gateway.
type MessageSender interface {
	Send(ctx context.Context, senderID, chatID, text string) (mappers.MessageDTO, error)
}

// ChatHandler manages private and project chat endpoints.
type ChatHandler struct {
	chatRepo         repositories.ChatRepository
	messageRepo      repositories.MessageRepository
	relationshipRepo repositories.RelationshipRepository
	ingress          MessageSender
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, relationshipRepo repositories.RelationshipRepository, ingress MessageSender) *ChatHandler {
	return &ChatHandler{
		chatRepo:         chatRepo,
		messageRepo:      messageRepo,
		relationshipRepo: relationshipRepo,
		ingress:          ingress,
	}
}

// ListChats returns the private and project chats visible to the caller.
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.chatRepo.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to load chats", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": mappers.ToChatDTOs(chats)})
}

// StartChat creates or returns the private chat between the caller and a friend.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" validate:"required"`
	}
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	userID := currentUserID(c)
	if userID == req.UserID {
		apperrors.Respond(c, apperrors.BadRequest("cannot chat with yourself"))
		return
	}

	friends, err := h.relationshipRepo.AreFriends(c.Request.Context(), userID, req.UserID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to validate friendship", err))
		return
	}
	if !friends {
		apperrors.Respond(c, apperrors.Forbidden("users are not friends"))
		return
	}

	chat, err := h.chatRepo.CreateOrGetPrivate(c.Request.Context(), userID, req.UserID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create chat", err))
		return
	}

	details, err := h.chatRepo.GetDetails(c.Request.Context(), chat.ID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load chat", err))
		return
	}
	c.JSON(http.StatusOK, mappers.ToChatDTO(details))
}

// GetChatMessages returns the latest messages of a chat in ascending order.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apperrors.Respond(c, apperrors.BadRequest("invalid limit"))
			return
		}
		limit = min(n, maxMessageLimit)
	}

	chatID := c.Param("id")
	if _, err := h.chatRepo.GetByID(c.Request.Context(), chatID); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			apperrors.Respond(c, apperrors.NotFound("chat not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal("failed to load chat", err))
		return
	}

	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to verify membership", err))
		return
	}
	if !member {
		apperrors.Respond(c, apperrors.Forbidden("not a chat member"))
		return
	}

	msgs, err := h.messageRepo.ListByChat(c.Request.Context(), chatID, limit)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to load messages", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": mappers.ToMessageDTOs(msgs)})
}

// PostChatMessage stores a chat message and fans it out like the socket event.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.BadRequest("invalid request payload"))
		return
	}

	msg, err := h.ingress.Send(c.Request.Context(), currentUserID(c), c.Param("id"), req.Text)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
