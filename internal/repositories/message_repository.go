package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"arcade-chat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, id, userID, content string, replyToID *string) (models.Message, error)
	ListRecent(ctx context.Context, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	UpdateContent(ctx context.Context, messageID, content string) (models.Message, error)
	SoftDelete(ctx context.Context, messageID string) error
	DeleteAll(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, user_id, content, is_deleted, is_edited, reply_to_id, created_at, updated_at`

// CreateMessage stores a new message, optionally referencing a reply target.
func (r *MessageRepo) CreateMessage(ctx context.Context, id, userID, content string, replyToID *string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (id, user_id, content, reply_to_id) VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		id, userID, content, replyToID)
	return msg, err
}

// ListRecent returns the newest messages, most recent first. Callers reverse
// for display order.
func (r *MessageRepo) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages ORDER BY created_at DESC LIMIT $1`, limit)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateContent replaces the content of a message and flags it as edited.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`UPDATE messages SET content=$2, is_edited=TRUE, updated_at=NOW() WHERE id=$1 RETURNING `+messageColumns,
		messageID, content)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete marks a message deleted and clears its content.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted=TRUE, content='', updated_at=NOW() WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteAll removes every message and reports how many rows went away.
func (r *MessageRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOlderThan removes messages created before the cutoff.
func (r *MessageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
