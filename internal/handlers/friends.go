package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
	"collab-service/internal/telemetry"
	"collab-service/internal/ws"
)

// UserNotifier pushes a socket event to every connection of a user.
type UserNotifier interface {
	BroadcastToUser(userID string, event string, payload any) error
}

// FriendHandler manages friend requests and friendships.
type FriendHandler struct {
	auditor
	users         repositories.UserRepository
	relationships repositories.RelationshipRepository
	notifier      UserNotifier
	logger        *logrus.Logger
}

func NewFriendHandler(users repositories.UserRepository, relationships repositories.RelationshipRepository, notifier UserNotifier, audit *telemetry.AuditEmitter, logger *logrus.Logger) *FriendHandler {
	return &FriendHandler{
		auditor:       auditor{audit: audit},
		users:         users,
		relationships: relationships,
		notifier:      notifier,
		logger:        logger,
	}
}

type friendRequestsResponse struct {
	Incoming []mappers.FriendDTO `json:"incoming"`
	Outgoing []mappers.FriendDTO `json:"outgoing"`
}

// List returns the caller's friends.
func (h *FriendHandler) List(c *gin.Context) {
	friends, err := h.relationships.ListFriends(c.Request.Context(), currentUserID(c))
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load friends", err))
		return
	}
	out := lo.Map(friends, func(u models.User, _ int) mappers.FriendDTO {
		return mappers.FriendDTO{User: mappers.ToUserDTO(u), Status: mappers.StatusFriends}
	})
	c.JSON(http.StatusOK, gin.H{"friends": out})
}

// Requests returns pending requests split by direction.
func (h *FriendHandler) Requests(c *gin.Context) {
	resp, err := h.pendingRequests(c, currentUserID(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FriendHandler) pendingRequests(c *gin.Context, userID string) (friendRequestsResponse, error) {
	resp := friendRequestsResponse{Incoming: []mappers.FriendDTO{}, Outgoing: []mappers.FriendDTO{}}

	pending, err := h.relationships.ListPending(c.Request.Context(), userID)
	if err != nil {
		return resp, apperrors.Internal("could not load friend requests", err)
	}
	if len(pending) == 0 {
		return resp, nil
	}

	others := lo.Map(pending, func(r models.Relationship, _ int) string { return r.Other(userID) })
	users, err := h.users.GetByIDs(c.Request.Context(), others)
	if err != nil {
		return resp, apperrors.Internal("could not load users", err)
	}
	byID := lo.KeyBy(users, func(u models.User) string { return u.ID })

	for i := range pending {
		user, ok := byID[pending[i].Other(userID)]
		if !ok {
			continue
		}
		status, err := mappers.RelationshipStatus(userID, &pending[i])
		if err != nil {
			return resp, apperrors.Internal("could not render friend request", err)
		}
		dto := mappers.FriendDTO{User: mappers.ToUserDTO(user), Status: status}
		if status == mappers.StatusFriendRequestReceived {
			resp.Incoming = append(resp.Incoming, dto)
		} else {
			resp.Outgoing = append(resp.Outgoing, dto)
		}
	}
	return resp, nil
}

// Request sends a friend request to :id. A request towards someone who already
// asked the caller completes the friendship.
func (h *FriendHandler) Request(c *gin.Context) {
	userID, otherID := currentUserID(c), c.Param("id")
	if userID == otherID {
		apperrors.Respond(c, apperrors.BadRequest("cannot befriend yourself"))
		return
	}

	other, ok := h.loadUser(c, otherID)
	if !ok {
		return
	}

	rel, err := h.relationships.Get(c.Request.Context(), userID, otherID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load relationship", err))
		return
	}

	current, err := mappers.RelationshipStatus(userID, rel)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load relationship", err))
		return
	}

	next := models.RequestFrom(userID, otherID)
	event := ws.EventFriendRequest
	switch current {
	case mappers.StatusFriends, mappers.StatusFriendRequestSent:
		h.respondFriend(c, other, rel)
		return
	case mappers.StatusFriendRequestReceived:
		next = models.RelationshipFriends
		event = ws.EventFriendAccepted
	}

	h.setAndRespond(c, other, next, event)
}

// Accept accepts a pending request sent by :id to the caller.
func (h *FriendHandler) Accept(c *gin.Context) {
	userID, otherID := currentUserID(c), c.Param("id")

	other, ok := h.loadUser(c, otherID)
	if !ok {
		return
	}

	rel, err := h.relationships.Get(c.Request.Context(), userID, otherID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load relationship", err))
		return
	}
	status, err := mappers.RelationshipStatus(userID, rel)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load relationship", err))
		return
	}
	if status != mappers.StatusFriendRequestReceived {
		apperrors.Respond(c, apperrors.BadRequest("no pending request from this user"))
		return
	}

	h.setAndRespond(c, other, models.RelationshipFriends, ws.EventFriendAccepted)
}

// Remove ends a friendship, cancels an outgoing request or declines an incoming one.
func (h *FriendHandler) Remove(c *gin.Context) {
	userID, otherID := currentUserID(c), c.Param("id")
	if userID == otherID {
		apperrors.Respond(c, apperrors.BadRequest("cannot unfriend yourself"))
		return
	}

	other, ok := h.loadUser(c, otherID)
	if !ok {
		return
	}
	if err := h.relationships.Delete(c.Request.Context(), userID, otherID); err != nil {
		apperrors.Respond(c, apperrors.Internal("could not remove relationship", err))
		return
	}

	h.emitAudit(c, "INFO", "relationship removed")
	c.JSON(http.StatusOK, mappers.FriendDTO{User: mappers.ToUserDTO(other), Status: mappers.StatusNone})
}

func (h *FriendHandler) setAndRespond(c *gin.Context, other models.User, status models.RelationshipStatus, event string) {
	userID := currentUserID(c)
	rel, err := h.relationships.Set(c.Request.Context(), userID, other.ID, status)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not update relationship", err))
		return
	}

	if h.notifier != nil {
		if err := h.notifier.BroadcastToUser(other.ID, event, gin.H{"userId": userID}); err != nil {
			h.logger.WithError(err).WithField("user_id", other.ID).Warn("friend notification failed")
		}
	}

	h.emitAudit(c, "INFO", "relationship set to "+string(status))
	h.respondFriend(c, other, &rel)
}

func (h *FriendHandler) respondFriend(c *gin.Context, other models.User, rel *models.Relationship) {
	status, err := mappers.RelationshipStatus(currentUserID(c), rel)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not render relationship", err))
		return
	}
	c.JSON(http.StatusOK, mappers.FriendDTO{User: mappers.ToUserDTO(other), Status: status})
}

func (h *FriendHandler) loadUser(c *gin.Context, id string) (models.User, bool) {
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err == nil {
		return user, true
	}
	if errors.Is(err, repositories.ErrUserNotFound) {
		apperrors.Respond(c, apperrors.NotFound("user not found"))
	} else {
		apperrors.Respond(c, apperrors.Internal("could not load user", err))
	}
	return models.User{}, false
}
