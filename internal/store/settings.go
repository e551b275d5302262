package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSetting reads a settings value. Returns ok=false when the key is unset.
func (s *Store) GetSetting(key string) (value string, ok bool, err error) {
	return s.GetSettingContext(context.Background(), key)
}

// GetSettingContext reads a setting with context support.
func (s *Store) GetSettingContext(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting writes a settings value, overwriting any previous one.
func (s *Store) SetSetting(key, value string) error {
	return s.SetSettingContext(context.Background(), key, value)
}

// SetSettingContext writes a setting with context support.
func (s *Store) SetSettingContext(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a settings key. Absent keys are a no-op.
func (s *Store) DeleteSetting(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
