package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
	"collab-service/internal/telemetry"
)

const feedLimit = 50

// CardHandler manages project job postings.
type CardHandler struct {
	auditor
	cards    repositories.CardRepository
	projects repositories.ProjectRepository
}

func NewCardHandler(cards repositories.CardRepository, projects repositories.ProjectRepository, audit *telemetry.AuditEmitter) *CardHandler {
	return &CardHandler{auditor: auditor{audit: audit}, cards: cards, projects: projects}
}

type cardRequest struct {
	Title       string  `json:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Reward      float64 `json:"reward" validate:"gte=0"`
}

// Create adds a draft card to the project.
func (h *CardHandler) Create(c *gin.Context) {
	var req cardRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	project, ok := loadProject(c, h.projects, c.Param("id"))
	if !ok {
		return
	}
	userID := currentUserID(c)
	if !requireMember(c, h.projects, project.ID, userID) {
		return
	}

	card, err := h.cards.Create(c.Request.Context(), models.Card{
		ProjectID:   project.ID,
		AuthorID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Reward:      req.Reward,
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create card", err))
		return
	}

	h.emitAudit(c, "INFO", "card created")
	c.JSON(http.StatusCreated, mappers.ToCardDTO(card))
}

// ListByProject returns every card of a project the caller belongs to.
func (h *CardHandler) ListByProject(c *gin.Context) {
	project, ok := loadProject(c, h.projects, c.Param("id"))
	if !ok {
		return
	}
	if !requireMember(c, h.projects, project.ID, currentUserID(c)) {
		return
	}

	cards, err := h.cards.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load cards", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": mappers.ToCardDTOs(cards)})
}

// Feed returns the newest published cards.
func (h *CardHandler) Feed(c *gin.Context) {
	cards, err := h.cards.ListPublished(c.Request.Context(), feedLimit)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load cards", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": mappers.ToCardDTOs(cards)})
}
