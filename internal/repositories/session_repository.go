package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"arcade-chat/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines interactions for login sessions. The updated_at
// column is the activity timestamp the online projection reads.
type SessionRepository interface {
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) (models.Session, error)
	GetSession(ctx context.Context, token string) (models.Session, error)
	TouchSession(ctx context.Context, token string) error
	DeleteSession(ctx context.Context, token string) error
	ListOnlineUsers(ctx context.Context, since time.Time) ([]models.OnlineUser, error)
}

// SessionRepo is a sqlx-backed repository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// CreateSession stores a new session row.
func (r *SessionRepo) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) (models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)
         RETURNING token, user_id, expires_at, created_at, updated_at`,
		token, userID, expiresAt)
	return session, err
}

// GetSession retrieves a non-expired session.
func (r *SessionRepo) GetSession(ctx context.Context, token string) (models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session,
		`SELECT token, user_id, expires_at, created_at, updated_at FROM sessions WHERE token=$1 AND expires_at > NOW()`,
		token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, err
}

// TouchSession bumps the activity timestamp.
func (r *SessionRepo) TouchSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET updated_at=NOW() WHERE token=$1`, token)
	return err
}

// DeleteSession logs the session out.
func (r *SessionRepo) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token=$1`, token)
	return err
}

// ListOnlineUsers projects online users out of session recency, one row per
// user no matter how many sessions they hold.
func (r *SessionRepo) ListOnlineUsers(ctx context.Context, since time.Time) ([]models.OnlineUser, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT DISTINCT ON (u.id) u.id, u.name, u.image, s.updated_at
         FROM sessions s
         JOIN users u ON u.id = s.user_id
         WHERE s.updated_at >= $1
         ORDER BY u.id, s.updated_at DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var online []models.OnlineUser
	for rows.Next() {
		var (
			user  models.OnlineUser
			image sql.NullString
		)
		if err := rows.Scan(&user.ID, &user.Name, &image, &user.UpdatedAt); err != nil {
			return nil, err
		}
		if image.Valid {
			value := image.String
			user.Image = &value
		}
		online = append(online, user)
	}
	return online, rows.Err()
}
