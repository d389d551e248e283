package service

import (
	"context"

	"github.com/finbook/finbook/internal/config"
	"github.com/finbook/finbook/internal/database/repository"
)

// EnsurePreferences creates the singleton preferences row from config
// defaults when none exists yet. Idempotent and safe to run on every
// startup.
func EnsurePreferences(ctx context.Context, repo *repository.PreferencesRepo, cfg config.Config) (*repository.Preferences, error) {
	p, err := repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	p = &repository.Preferences{
		Currency:   cfg.UI.Currency,
		Theme:      cfg.UI.Theme,
		DateFormat: cfg.UI.DateFormat,
	}
	if err := repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
