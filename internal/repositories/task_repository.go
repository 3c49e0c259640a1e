package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"collab-service/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, project_id, creator_id, assignee_id, title, description, status, created_at, updated_at`

// TaskRepository defines interactions for project tasks.
type TaskRepository interface {
	Create(ctx context.Context, task models.Task) (models.Task, error)
	GetByID(ctx context.Context, taskID string) (models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)
	Update(ctx context.Context, taskID string, update models.TaskUpdate) (models.Task, error)
}

// TaskRepo is a sqlx-backed implementation.
type TaskRepo struct {
	db *sqlx.DB
}

// NewTaskRepo constructs a TaskRepo.
func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create persists a task in todo state.
func (r *TaskRepo) Create(ctx context.Context, task models.Task) (models.Task, error) {
	var created models.Task
	err := r.db.GetContext(ctx, &created, `INSERT INTO tasks (id, project_id, creator_id, assignee_id, title, description, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+taskColumns,
		uuid.NewString(), task.ProjectID, task.CreatorID, task.AssigneeID, task.Title, task.Description, models.TaskTodo)
	return created, err
}

// GetByID fetches a single task.
func (r *TaskRepo) GetByID(ctx context.Context, taskID string) (models.Task, error) {
	var task models.Task
	err := r.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}

// ListByProject returns tasks ordered by creation.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks WHERE project_id=$1 ORDER BY created_at ASC`, projectID)
	return tasks, err
}

// Update applies the non-nil fields of update.
func (r *TaskRepo) Update(ctx context.Context, taskID string, update models.TaskUpdate) (models.Task, error) {
	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	var task models.Task
	err := r.db.GetContext(ctx, &task, `UPDATE tasks SET
            status = COALESCE($2, status),
            assignee_id = COALESCE($3, assignee_id),
            updated_at = NOW()
        WHERE id=$1 RETURNING `+taskColumns, taskID, status, update.AssigneeID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}
