package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"arcade-chat/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepository defines interactions for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, id, name, email, passwordHash string, isAdmin bool) (models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsersWithCounts(ctx context.Context) ([]models.AdminUser, error)
	BulkUsers(ctx context.Context, ids []string) ([]models.User, error)
	DeleteUser(ctx context.Context, userID string) error
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
	SetChessCompleted(ctx context.Context, userID string, completed bool) error
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, image, password_hash, is_admin, chess_completed, created_at, updated_at`

// CreateUser stores a new account.
func (r *UserRepo) CreateUser(ctx context.Context, id, name, email, passwordHash string, isAdmin bool) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`INSERT INTO users (id, name, email, password_hash, is_admin) VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		id, name, email, passwordHash, isAdmin)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return models.User{}, ErrEmailTaken
	}
	return user, err
}

// GetUser retrieves an account by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByEmail retrieves an account by email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsersWithCounts returns every account with its message count, newest first.
func (r *UserRepo) ListUsersWithCounts(ctx context.Context) ([]models.AdminUser, error) {
	var users []models.AdminUser
	err := r.db.SelectContext(ctx, &users,
		`SELECT u.id, u.name, u.email, u.image, u.password_hash, u.is_admin, u.chess_completed, u.created_at, u.updated_at,
                COUNT(m.id) AS message_count
         FROM users u
         LEFT JOIN messages m ON m.user_id = u.id
         GROUP BY u.id
         ORDER BY u.created_at DESC`)
	return users, err
}

// BulkUsers loads the given accounts in one query.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return users, err
}

// DeleteUser removes an account; messages and sessions cascade.
func (r *UserRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
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

// SetAdmin flips the admin flag.
func (r *UserRepo) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return r.execOnUser(ctx, `UPDATE users SET is_admin=$2, updated_at=NOW() WHERE id=$1`, userID, isAdmin)
}

// SetPasswordHash replaces the stored credential hash.
func (r *UserRepo) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	return r.execOnUser(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
}

// SetChessCompleted toggles the puzzle-gate flag.
func (r *UserRepo) SetChessCompleted(ctx context.Context, userID string, completed bool) error {
	return r.execOnUser(ctx, `UPDATE users SET chess_completed=$2, updated_at=NOW() WHERE id=$1`, userID, completed)
}

func (r *UserRepo) execOnUser(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
