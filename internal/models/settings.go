package models

import "time"

// ChatSettings is a singleton row gating chat writes for non-admin users.
type ChatSettings struct {
	ID        int       `db:"id" json:"id"`
	IsEnabled bool      `db:"is_enabled" json:"isEnabled"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
