package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
	"collab-service/internal/telemetry"
	"collab-service/internal/ws"
)

// ProjectHandler manages projects and their membership.
type ProjectHandler struct {
	auditor
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	notifier UserNotifier
	logger   *logrus.Logger
}

func NewProjectHandler(projects repositories.ProjectRepository, users repositories.UserRepository, notifier UserNotifier, audit *telemetry.AuditEmitter, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{
		auditor:  auditor{audit: audit},
		projects: projects,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

type projectRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Create starts a project owned by the caller together with its chat.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	project, err := h.projects.Create(c.Request.Context(), currentUserID(c), req.Title, req.Description)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create project", err))
		return
	}

	h.emitAudit(c, "INFO", "project created")
	c.JSON(http.StatusCreated, mappers.ToProjectDTO(project, nil))
}

// List returns projects the caller is a member of.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load projects", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": mappers.ToProjectDTOs(projects)})
}

// Get returns a project with its members.
func (h *ProjectHandler) Get(c *gin.Context) {
	project, ok := loadProject(c, h.projects, c.Param("id"))
	if !ok {
		return
	}
	members, err := h.projects.ListMembers(c.Request.Context(), project.ID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load members", err))
		return
	}
	c.JSON(http.StatusOK, mappers.ToProjectDTO(project, members))
}

// Update edits title and description. Owner only.
func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	project, ok := h.requireOwner(c)
	if !ok {
		return
	}
	updated, err := h.projects.Update(c.Request.Context(), project.ID, req.Title, req.Description)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not update project", err))
		return
	}

	h.emitAudit(c, "INFO", "project updated")
	c.JSON(http.StatusOK, mappers.ToProjectDTO(updated, nil))
}

// AddMember joins a user to the project and so to its chat. Owner only.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	project, ok := h.requireOwner(c)
	if !ok {
		return
	}

	exists, err := h.users.Exists(c.Request.Context(), req.UserID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load user", err))
		return
	}
	if !exists {
		apperrors.Respond(c, apperrors.NotFound("user not found"))
		return
	}

	err = h.projects.AddMember(c.Request.Context(), project.ID, req.UserID, models.ProjectRoleMember)
	if errors.Is(err, repositories.ErrAlreadyMember) {
		apperrors.Respond(c, apperrors.Conflict("user is already a member"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not add member", err))
		return
	}

	if h.notifier != nil {
		payload := gin.H{"project": mappers.ToProjectDTO(project, nil)}
		if err := h.notifier.BroadcastToUser(req.UserID, ws.EventProjectJoined, payload); err != nil {
			h.logger.WithError(err).WithField("user_id", req.UserID).Warn("project join notification failed")
		}
	}

	h.emitAudit(c, "INFO", "project member added")
	h.respondMembers(c, project)
}

// RemoveMember drops a member. Owner only; the owner cannot be removed.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	project, ok := h.requireOwner(c)
	if !ok {
		return
	}

	memberID := c.Param("userId")
	if memberID == project.OwnerID {
		apperrors.Respond(c, apperrors.BadRequest("the project owner cannot be removed"))
		return
	}

	err := h.projects.RemoveMember(c.Request.Context(), project.ID, memberID)
	if errors.Is(err, repositories.ErrNotMember) {
		apperrors.Respond(c, apperrors.NotFound("member not found"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not remove member", err))
		return
	}

	h.emitAudit(c, "INFO", "project member removed")
	h.respondMembers(c, project)
}

func (h *ProjectHandler) respondMembers(c *gin.Context, project models.Project) {
	members, err := h.projects.ListMembers(c.Request.Context(), project.ID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load members", err))
		return
	}
	c.JSON(http.StatusOK, mappers.ToProjectDTO(project, members))
}

func (h *ProjectHandler) requireOwner(c *gin.Context) (models.Project, bool) {
	project, ok := loadProject(c, h.projects, c.Param("id"))
	if !ok {
		return models.Project{}, false
	}
	if project.OwnerID != currentUserID(c) {
		apperrors.Respond(c, apperrors.Forbidden("only the project owner can do this"))
		return models.Project{}, false
	}
	return project, true
}

func loadProject(c *gin.Context, projects repositories.ProjectRepository, projectID string) (models.Project, bool) {
	project, err := projects.GetByID(c.Request.Context(), projectID)
	if err == nil {
		return project, true
	}
	if errors.Is(err, repositories.ErrProjectNotFound) {
		apperrors.Respond(c, apperrors.NotFound("project not found"))
	} else {
		apperrors.Respond(c, apperrors.Internal("could not load project", err))
	}
	return models.Project{}, false
}

// requireMember writes FORBIDDEN unless userID belongs to the project.
func requireMember(c *gin.Context, projects repositories.ProjectRepository, projectID, userID string) bool {
	ok, err := isMember(c.Request.Context(), projects, projectID, userID)
	if err != nil {
		apperrors.Respond(c, err)
		return false
	}
	if !ok {
		apperrors.Respond(c, apperrors.Forbidden("not a project member"))
		return false
	}
	return true
}

func isMember(ctx context.Context, projects repositories.ProjectRepository, projectID, userID string) (bool, error) {
	ok, err := projects.IsMember(ctx, projectID, userID)
	if err != nil {
		return false, apperrors.Internal("could not check membership", err)
	}
	return ok, nil
}
