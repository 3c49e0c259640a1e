package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collab-service/internal/apperrors"
	"collab-service/internal/mappers"
	"collab-service/internal/models"
	"collab-service/internal/repositories"
	"collab-service/internal/telemetry"
)

// TaskHandler manages project tasks.
type TaskHandler struct {
	auditor
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
}

func NewTaskHandler(tasks repositories.TaskRepository, projects repositories.ProjectRepository, audit *telemetry.AuditEmitter) *TaskHandler {
	return &TaskHandler{auditor: auditor{audit: audit}, tasks: tasks, projects: projects}
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	AssigneeID  *string `json:"assigneeId" validate:"omitempty,min=1"`
}

type updateTaskRequest struct {
	Status     *string `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	AssigneeID *string `json:"assigneeId" validate:"omitempty,min=1"`
}

// Create adds a task to a project the caller belongs to.
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
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
	if !h.checkAssignee(c, project.ID, req.AssigneeID) {
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), models.Task{
		ProjectID:   project.ID,
		CreatorID:   userID,
		AssigneeID:  req.AssigneeID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	})
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create task", err))
		return
	}

	h.emitAudit(c, "INFO", "task created")
	c.JSON(http.StatusCreated, mappers.ToTaskDTO(task))
}

// List returns the tasks of a project the caller belongs to.
func (h *TaskHandler) List(c *gin.Context) {
	project, ok := loadProject(c, h.projects, c.Param("id"))
	if !ok {
		return
	}
	if !requireMember(c, h.projects, project.ID, currentUserID(c)) {
		return
	}

	tasks, err := h.tasks.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load tasks", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": mappers.ToTaskDTOs(tasks)})
}

// Update changes status or assignee of a task.
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrTaskNotFound) {
		apperrors.Respond(c, apperrors.NotFound("task not found"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load task", err))
		return
	}
	if !requireMember(c, h.projects, task.ProjectID, currentUserID(c)) {
		return
	}
	if !h.checkAssignee(c, task.ProjectID, req.AssigneeID) {
		return
	}

	var update models.TaskUpdate
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		update.Status = &status
	}
	update.AssigneeID = req.AssigneeID

	updated, err := h.tasks.Update(c.Request.Context(), task.ID, update)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not update task", err))
		return
	}

	h.emitAudit(c, "INFO", "task updated")
	c.JSON(http.StatusOK, mappers.ToTaskDTO(updated))
}

func (h *TaskHandler) checkAssignee(c *gin.Context, projectID string, assigneeID *string) bool {
	if assigneeID == nil {
		return true
	}
	ok, err := isMember(c.Request.Context(), h.projects, projectID, *assigneeID)
	if err != nil {
		apperrors.Respond(c, err)
		return false
	}
	if !ok {
		apperrors.Respond(c, apperrors.Validation([]apperrors.FieldError{{Field: "assigneeId", Message: "must be a project member"}}))
		return false
	}
	return true
}
