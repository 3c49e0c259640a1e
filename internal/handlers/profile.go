package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/middleware"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
	"collab-service/internal/session"
	"collab-service/internal/telemetry"
)

// ProfileHandler serves user profiles and profile edits.
type ProfileHandler struct {
	auditor
	users         repositories.UserRepository
	relationships repositories.RelationshipRepository
	sessions      session.Store
}

func NewProfileHandler(users repositories.UserRepository, relationships repositories.RelationshipRepository, sessions session.Store, audit *telemetry.AuditEmitter) *ProfileHandler {
	return &ProfileHandler{
		auditor:       auditor{audit: audit},
		users:         users,
		relationships: relationships,
		sessions:      sessions,
	}
}

type editProfileRequest struct {
	FirstName string `json:"firstName" validate:"max=64"`
	LastName  string `json:"lastName" validate:"max=64"`
	Bio       string `json:"bio" validate:"max=1000"`
	City      string `json:"city" validate:"max=128"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url,max=1024"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// GetUser returns another user's profile with the caller-relative relationship.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	viewerID := currentUserID(c)
	target, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrUserNotFound) {
		apperrors.Respond(c, apperrors.NotFound("user not found"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load user", err))
		return
	}

	var rel *models.Relationship
	if target.ID != viewerID {
		rel, err = h.relationships.Get(c.Request.Context(), viewerID, target.ID)
		if err != nil {
			apperrors.Respond(c, apperrors.Internal("could not load relationship", err))
			return
		}
	}

	dto, err := mappers.ToProfileDTO(target, viewerID, rel)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not render profile", err))
		return
	}
	c.JSON(http.StatusOK, dto)
}

// GetProfile returns the caller's own profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load profile", err))
		return
	}
	c.JSON(http.StatusOK, mappers.ToOwnProfileDTO(user))
}

// Edit updates the caller's profile and refreshes the user cached in the session.
func (h *ProfileHandler) Edit(c *gin.Context) {
	var req editProfileRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUserID(c), models.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		City:      req.City,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not update profile", err))
		return
	}

	if sess, ok := middleware.SessionFromContext(c); ok {
		sess.User = user
		if err := h.sessions.Save(c.Request.Context(), sess); err != nil {
			apperrors.Respond(c, apperrors.Internal("could not refresh session", err))
			return
		}
	}

	h.emitAudit(c, "INFO", "profile updated")
	c.JSON(http.StatusOK, mappers.ToOwnProfileDTO(user))
}

// ChangePassword replaces the password after checking the current one.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	userID := currentUserID(c)
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load user", err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		apperrors.Respond(c, apperrors.BadRequest("current password is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not hash password", err))
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), userID, string(hash)); err != nil {
		apperrors.Respond(c, apperrors.Internal("could not update password", err))
		return
	}

	h.emitAudit(c, "INFO", "password changed")
	c.Status(http.StatusNoContent)
}
