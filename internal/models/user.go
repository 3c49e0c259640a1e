package models

import "time"

// User is a registered account.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Bio          string    `db:"bio" json:"bio"`
	City         string    `db:"city" json:"city"`
	AvatarURL    string    `db:"avatar_url" json:"avatarUrl"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Bio       string
	City      string
	AvatarURL string
}
