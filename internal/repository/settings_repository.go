package repository

import (
	"context"
	"database/sql"
)

// SettingsRepo persists admin-controlled flags in the 'system_settings'
// table. The cached view with TTL semantics lives in the settings package;
// this layer is plain durable key/value access.
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// Get returns the stored value for a key, or ErrSettingNotFound.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT setting_value FROM system_settings WHERE setting_key=? LIMIT 1", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", ErrSettingNotFound
	}
	return v, err
}

// Set upserts a key/value pair.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO system_settings (setting_key, setting_value) VALUES (?,?) ON DUPLICATE KEY UPDATE setting_value=VALUES(setting_value)",
		key, value)
	return err
}
