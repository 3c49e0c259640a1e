package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Task is a unit of work inside a project.
type Task struct {
	ID          string     `db:"id" json:"id"`
	ProjectID   string     `db:"project_id" json:"projectId"`
	CreatorID   string     `db:"creator_id" json:"creatorId"`
	AssigneeID  *string    `db:"assignee_id" json:"assigneeId,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      TaskStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// TaskUpdate holds optional task changes; nil fields are left untouched.
type TaskUpdate struct {
	Status     *TaskStatus
	AssigneeID *string
}
