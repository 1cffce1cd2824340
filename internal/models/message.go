package models

import (
	"database/sql"
	"time"
)

// MaxMessageLength bounds message content in code points. The server is
// authoritative; clients enforce the same limit for responsiveness only.
const MaxMessageLength = 1000

// Message represents a chat message. Rows are soft-deleted: content is cleared
// and is_deleted set, but the row survives so reply threads keep their target.
type Message struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"userId"`
	Content   string         `db:"content" json:"content"`
	IsDeleted bool           `db:"is_deleted" json:"isDeleted"`
	IsEdited  bool           `db:"is_edited" json:"isEdited"`
	ReplyToID sql.NullString `db:"reply_to_id" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// MessageWithUser is the API shape of a message: the row plus the author
// identity clients need to render it without another fetch.
type MessageWithUser struct {
	Message
	ReplyToID *string     `json:"replyToId"`
	User      UserSummary `json:"user"`
}

// WithUser attaches author identity and normalizes the nullable reply target.
func (m Message) WithUser(user UserSummary) MessageWithUser {
	out := MessageWithUser{Message: m, User: user}
	if m.ReplyToID.Valid {
		replyTo := m.ReplyToID.String
		out.ReplyToID = &replyTo
	}
	return out
}
