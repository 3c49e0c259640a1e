package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/repositories"
)

const (
	searchLimit   = 20
	overviewLimit = 10
)

// SearchHandler serves search and the dashboard overview.
type SearchHandler struct {
	users         repositories.UserRepository
	projects      repositories.ProjectRepository
	cards         repositories.CardRepository
	relationships repositories.RelationshipRepository
	friends       *FriendHandler
}

func NewSearchHandler(users repositories.UserRepository, projects repositories.ProjectRepository, cards repositories.CardRepository, relationships repositories.RelationshipRepository, friends *FriendHandler) *SearchHandler {
	return &SearchHandler{users: users, projects: projects, cards: cards, relationships: relationships, friends: friends}
}

// Search matches users and projects by a case-insensitive substring.
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		apperrors.Respond(c, apperrors.BadRequest("query must not be empty"))
		return
	}

	users, err := h.users.Search(c.Request.Context(), query, searchLimit)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not search users", err))
		return
	}
	projects, err := h.projects.Search(c.Request.Context(), query, searchLimit)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not search projects", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    mappers.ToUserDTOs(users),
		"projects": mappers.ToProjectDTOs(projects),
	})
}

// Overview returns the caller's dashboard.
func (h *SearchHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	projects, err := h.projects.ListForUser(ctx, userID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load projects", err))
		return
	}
	friends, err := h.relationships.ListFriends(ctx, userID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load friends", err))
		return
	}
	requests, err := h.friends.pendingRequests(c, userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	cards, err := h.cards.ListPublishedForUser(ctx, userID, overviewLimit)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load cards", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":         mappers.ToProjectDTOs(projects),
		"friends":          mappers.ToUserDTOs(friends),
		"incomingRequests": requests.Incoming,
		"cards":            mappers.ToCardDTOs(cards),
	})
}
