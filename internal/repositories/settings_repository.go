package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"arcade-chat/internal/models"
)

// SettingsRepository manages the chat_settings singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (models.ChatSettings, error)
	UpsertSettings(ctx context.Context, isEnabled bool, updatedBy string) (models.ChatSettings, error)
}

// SettingsRepo is a sqlx-backed repository.
type SettingsRepo struct {
	db *sqlx.DB
}

// NewSettingsRepo constructs SettingsRepo.
func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetSettings returns the singleton. Chat defaults to enabled when the row has
// never been written.
func (r *SettingsRepo) GetSettings(ctx context.Context) (models.ChatSettings, error) {
	var settings models.ChatSettings
	err := r.db.GetContext(ctx, &settings,
		`SELECT id, is_enabled, updated_by, updated_at FROM chat_settings WHERE id=1`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatSettings{ID: 1, IsEnabled: true}, nil
	}
	return settings, err
}

// UpsertSettings writes the singleton, creating it on first use.
func (r *SettingsRepo) UpsertSettings(ctx context.Context, isEnabled bool, updatedBy string) (models.ChatSettings, error) {
	var settings models.ChatSettings
	err := r.db.GetContext(ctx, &settings,
		`INSERT INTO chat_settings (id, is_enabled, updated_by, updated_at) VALUES (1, $1, $2, NOW())
         ON CONFLICT (id) DO UPDATE SET is_enabled=$1, updated_by=$2, updated_at=NOW()
         RETURNING id, is_enabled, updated_by, updated_at`,
		isEnabled, updatedBy)
	return settings, err
}
