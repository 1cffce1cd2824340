package models

import (
	"database/sql"
	"time"
)

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	Image          sql.NullString `db:"image" json:"-"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	IsAdmin        bool           `db:"is_admin" json:"isAdmin"`
	ChessCompleted bool           `db:"chess_completed" json:"chessCompleted"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the minimal identity carried on messages and events.
type UserSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

// Summary projects a User into its event/API identity.
func (u User) Summary() UserSummary {
	s := UserSummary{ID: u.ID, Name: u.Name}
	if u.Image.Valid {
		image := u.Image.String
		s.Image = &image
	}
	return s
}

// AdminUser is the admin-console view of an account.
type AdminUser struct {
	User
	MessageCount int `db:"message_count" json:"messageCount"`
}

// OnlineUser is a user considered online by the session-recency projection.
type OnlineUser struct {
	UserSummary
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is a token-backed login. UpdatedAt doubles as the activity timestamp
// that feeds the online projection.
type Session struct {
	Token     string    `db:"token" json:"token"`
	UserID    string    `db:"user_id" json:"userId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
