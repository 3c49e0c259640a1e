package handlers

import (
	"errors"
	"net/http"
	"strings"

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

// AuthHandler issues and destroys sessions.
type AuthHandler struct {
	auditor
	users    repositories.UserRepository
	sessions session.Store
	cookies  *session.CookieCodec
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, sessions session.Store, cookies *session.CookieCodec, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		auditor:  auditor{audit: audit},
		users:    users,
		sessions: sessions,
		cookies:  cookies,
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Username  string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=64"`
	LastName  string `json:"lastName" validate:"max=64"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and signs the caller in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not hash password", err))
		return
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if errors.Is(err, repositories.ErrUserExists) {
		apperrors.Respond(c, apperrors.Conflict("email or username already taken"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create user", err))
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.Set(middleware.UserIDKey, user.ID)
	h.emitAudit(c, "INFO", "user registered")
	c.JSON(http.StatusCreated, mappers.ToOwnProfileDTO(user))
}

// Login checks credentials and signs the caller in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repositories.ErrUserNotFound) {
		apperrors.Respond(c, apperrors.BadRequest("invalid email or password"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load user", err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		apperrors.Respond(c, apperrors.BadRequest("invalid email or password"))
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.Set(middleware.UserIDKey, user.ID)
	h.emitAudit(c, "INFO", "user logged in")
	c.JSON(http.StatusOK, mappers.ToOwnProfileDTO(user))
}

// Logout destroys the current session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sess, ok := middleware.SessionFromContext(c); ok {
		if err := h.sessions.Destroy(c.Request.Context(), sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
			apperrors.Respond(c, apperrors.Internal("could not destroy session", err))
			return
		}
	}
	h.cookies.Clear(c.Writer)
	h.emitAudit(c, "INFO", "user logged out")
	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if errors.Is(err, repositories.ErrUserNotFound) {
		apperrors.Respond(c, apperrors.Unauthorized("authentication required"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load user", err))
		return
	}
	c.JSON(http.StatusOK, mappers.ToOwnProfileDTO(user))
}

func (h *AuthHandler) startSession(c *gin.Context, user models.User) bool {
	sess, err := h.sessions.Create(c.Request.Context(), user)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create session", err))
		return false
	}
	if err := h.cookies.Write(c.Writer, sess.ID); err != nil {
		apperrors.Respond(c, apperrors.Internal("could not issue session cookie", err))
		return false
	}
	return true
}
