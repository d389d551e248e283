package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database/repository"
)

// AdjustmentService is the CRUD surface over balance adjustments. A schema
// missing the adjustments table (interrupted upgrade) degrades every
// operation to an empty result or a false ok, never to a storage error in
// the caller's face.
type AdjustmentService struct {
	Repo *repository.AdjustmentRepo
	Log  *zap.Logger
}

// Get returns the adjustment for (account, month), or nil when none exists
// or the capability is unavailable.
func (s *AdjustmentService) Get(ctx context.Context, accountID int64, yearMonth string) (*repository.BalanceAdjustment, error) {
	a, err := s.Repo.Get(ctx, accountID, yearMonth)
	if errors.Is(err, repository.ErrNotAvailable) {
		s.warnUnavailable()
		return nil, nil
	}
	return a, err
}

// GetAllForAccount returns every adjustment for an account, oldest month
// first. Unavailable capability yields an empty slice.
func (s *AdjustmentService) GetAllForAccount(ctx context.Context, accountID int64) ([]repository.BalanceAdjustment, error) {
	adjs, err := s.Repo.GetAllForAccount(ctx, accountID)
	if errors.Is(err, repository.ErrNotAvailable) {
		s.warnUnavailable()
		return nil, nil
	}
	return adjs, err
}

// Set upserts the adjustment for (account, month): an existing row keeps its
// id and created_at, only balance, note and updated_at change. Returns
// false when the capability is unavailable.
func (s *AdjustmentService) Set(ctx context.Context, accountID int64, yearMonth string, balance decimal.Decimal, note string) (bool, error) {
	a := repository.BalanceAdjustment{
		AccountID:       accountID,
		YearMonth:       yearMonth,
		AdjustedBalance: balance,
	}
	if note != "" {
		a.Note = &note
	}
	err := s.Repo.Set(ctx, &a)
	if errors.Is(err, repository.ErrNotAvailable) {
		s.warnUnavailable()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the adjustment for (account, month). Returns false when
// the capability is unavailable.
func (s *AdjustmentService) Delete(ctx context.Context, accountID int64, yearMonth string) (bool, error) {
	err := s.Repo.Delete(ctx, accountID, yearMonth)
	if errors.Is(err, repository.ErrNotAvailable) {
		s.warnUnavailable()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AdjustmentService) warnUnavailable() {
	s.Log.Warn("balance adjustments unavailable in current schema")
}
