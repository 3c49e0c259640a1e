package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"collab-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

const userColumns = `id, email, username, password_hash, first_name, last_name, bio, city, avatar_url, created_at, updated_at`

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user. A fresh id is assigned when user.ID is empty.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var created models.User
	err := r.db.GetContext(ctx, &created, `INSERT INTO users (id, email, username, password_hash, first_name, last_name)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+userColumns,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName)
	if isUniqueViolation(err) {
		return models.User{}, ErrUserExists
	}
	return created, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by case-insensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByIDs fetches users in one round trip; unknown ids are skipped.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY username`, pq.Array(ids))
	return users, err
}

// Exists checks that the id still resolves to a user.
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, id)
	return exists, err
}

// UpdateProfile overwrites the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `UPDATE users SET first_name=$2, last_name=$3, bio=$4, city=$5, avatar_url=$6, updated_at=NOW()
        WHERE id=$1 RETURNING `+userColumns,
		id, update.FirstName, update.LastName, update.Bio, update.City, update.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, id, passwordHash)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Search matches username, first or last name case-insensitively.
func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + escapeLike(query) + "%"
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users
        WHERE username ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1
        ORDER BY username LIMIT $2`, pattern, limit)
	return users, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
