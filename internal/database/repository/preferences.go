package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PreferencesRepo handles the singleton user preferences row.
type PreferencesRepo struct {
	db *sql.DB
}

func NewPreferencesRepo(db *sql.DB) *PreferencesRepo { return &PreferencesRepo{db: db} }

// Get returns the preferences row, or nil when none has been written yet.
func (r *PreferencesRepo) Get(ctx context.Context) (*Preferences, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, currency, theme, date_format, default_account_id, created_at, updated_at FROM user_preferences WHERE id=1`)
	var p Preferences
	err := row.Scan(&p.ID, &p.Currency, &p.Theme, &p.DateFormat, &p.DefaultAccountID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Put upserts the singleton row, preserving created_at of an existing row.
func (r *PreferencesRepo) Put(ctx context.Context, p *Preferences) error {
	p.ID = 1
	stampNew(&p.CreatedAt, &p.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO user_preferences(id, currency, theme, date_format, default_account_id, created_at, updated_at)
	VALUES (1, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 currency=excluded.currency,
	 theme=excluded.theme,
	 date_format=excluded.date_format,
	 default_account_id=excluded.default_account_id,
	 updated_at=excluded.updated_at;
	`, p.Currency, p.Theme, p.DateFormat, p.DefaultAccountID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
