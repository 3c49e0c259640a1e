package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"collab-service/internal/models"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrAlreadyMember   = errors.New("user is already a member")
	ErrNotMember       = errors.New("user is not a member")
)

const projectColumns = `id, owner_id, title, description, created_at, updated_at`

// ProjectRepository abstracts project and membership persistence.
type ProjectRepository interface {
	Create(ctx context.Context, ownerID string, title string, description string) (models.Project, error)
	GetByID(ctx context.Context, projectID string) (models.Project, error)
	Update(ctx context.Context, projectID string, title string, description string) (models.Project, error)
	ListForUser(ctx context.Context, userID string) ([]models.Project, error)
	ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error)
	ListMemberIDs(ctx context.Context, projectID string) ([]string, error)
	IsMember(ctx context.Context, projectID string, userID string) (bool, error)
	AddMember(ctx context.Context, projectID string, userID string, role string) error
	RemoveMember(ctx context.Context, projectID string, userID string) error
	Search(ctx context.Context, query string, limit int) ([]models.Project, error)
}

// ProjectRepo is a sqlx implementation of ProjectRepository.
type ProjectRepo struct {
	db *sqlx.DB
}

// NewProjectRepo constructs a ProjectRepo.
func NewProjectRepo(db *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts the project, its owner membership and its project chat atomically.
func (r *ProjectRepo) Create(ctx context.Context, ownerID string, title string, description string) (models.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Project{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var project models.Project
	if err = tx.GetContext(ctx, &project, `INSERT INTO projects (id, owner_id, title, description) VALUES ($1, $2, $3, $4) RETURNING `+projectColumns,
		uuid.NewString(), ownerID, title, description); err != nil {
		return models.Project{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)`, project.ID, ownerID, models.ProjectRoleOwner); err != nil {
		return models.Project{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO chats (id, type, project_id) VALUES ($1, $2, $3)`, uuid.NewString(), models.ChatProject, project.ID); err != nil {
		return models.Project{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// GetByID fetches a single project.
func (r *ProjectRepo) GetByID(ctx context.Context, projectID string) (models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrProjectNotFound
	}
	return project, err
}

// Update overwrites title and description.
func (r *ProjectRepo) Update(ctx context.Context, projectID string, title string, description string) (models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `UPDATE projects SET title=$2, description=$3, updated_at=NOW() WHERE id=$1 RETURNING `+projectColumns, projectID, title, description)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, ErrProjectNotFound
	}
	return project, err
}

// ListForUser returns projects that include the user.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, `SELECT p.id, p.owner_id, p.title, p.description, p.created_at, p.updated_at
        FROM projects p INNER JOIN project_members pm ON pm.project_id = p.id
        WHERE pm.user_id=$1 ORDER BY p.created_at DESC`, userID)
	return projects, err
}

// ListMembers returns members with their user records.
func (r *ProjectRepo) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := r.db.SelectContext(ctx, &members, `SELECT u.id, u.email, u.username, u.password_hash, u.first_name, u.last_name, u.bio, u.city, u.avatar_url, u.created_at, u.updated_at, pm.role, pm.joined_at
        FROM project_members pm JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id=$1 ORDER BY pm.joined_at ASC`, projectID)
	return members, err
}

// ListMemberIDs returns the current member ids. Every call hits the database.
func (r *ProjectRepo) ListMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM project_members WHERE project_id=$1 ORDER BY joined_at ASC`, projectID)
	return ids, err
}

// IsMember checks membership.
func (r *ProjectRepo) IsMember(ctx context.Context, projectID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id=$1 AND user_id=$2)`, projectID, userID)
	return exists, err
}

// AddMember joins userID to the project.
func (r *ProjectRepo) AddMember(ctx context.Context, projectID string, userID string, role string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)`, projectID, userID, role)
	if isUniqueViolation(err) {
		return ErrAlreadyMember
	}
	return err
}

// RemoveMember drops userID from the project.
func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID string, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id=$1 AND user_id=$2`, projectID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}

// Search matches project titles case-insensitively.
func (r *ProjectRepo) Search(ctx context.Context, query string, limit int) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects WHERE title ILIKE $1 ORDER BY created_at DESC LIMIT $2`,
		"%"+escapeLike(query)+"%", limit)
	return projects, err
}
