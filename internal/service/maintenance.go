package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database"
	"github.com/finbook/finbook/internal/database/repository"
)

// MaintenanceService houses destructive/ops actions outside the sync and
// forecast paths: wiping data, sweeping orphans left behind by account
// deletions on other devices, and flagging likely duplicate transactions.
type MaintenanceService struct {
	DB           *sql.DB
	Transactions *repository.TransactionRepo
	Log          *zap.Logger
}

// entityTables lists all entity tables, dependents first. sync_state is not
// an entity table and survives wipes.
var entityTables = []string{
	"balance_adjustments",
	"transactions",
	"recurring_transactions",
	"user_preferences",
	"accounts",
}

// WipeEntities deletes every entity row while keeping the schema and the
// sync state intact. Used when adopting a remote snapshot verbatim.
func (s *MaintenanceService) WipeEntities(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	// probe before Begin: the pool has a single connection, so probing
	// from inside the transaction would block on it
	var present []string
	for _, t := range entityTables {
		ok, err := database.HasTable(s.DB, t)
		if err != nil {
			return err
		}
		if ok {
			present = append(present, t)
		}
	}
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		for _, t := range present {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("wipe table %s: %w", t, err)
			}
		}
		return nil
	})
}

// Reset wipes all user data including the sync state. The schema stays so
// the app can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if err := s.WipeEntities(ctx); err != nil {
		return err
	}
	if ok, _ := database.HasTable(s.DB, "sync_state"); ok {
		if _, err := s.DB.ExecContext(ctx, "DELETE FROM sync_state"); err != nil {
			return fmt.Errorf("reset sync state: %w", err)
		}
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return nil
}

// SweepOrphans deletes rows referencing an account that no longer exists.
// The merge never drops such rows (a dangling reference passes through
// unchanged); this sweep is the separate cleanup pass that finishes the
// job. Returns the number of rows removed.
func (s *MaintenanceService) SweepOrphans(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	hasAdjustments, err := database.HasTable(s.DB, "balance_adjustments")
	if err != nil {
		return 0, err
	}
	var removed int64
	err = database.WithTx(s.DB, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM transactions WHERE account_id NOT IN (SELECT id FROM accounts)
			 OR (to_account_id IS NOT NULL AND to_account_id NOT IN (SELECT id FROM accounts))`,
			`DELETE FROM recurring_transactions WHERE account_id NOT IN (SELECT id FROM accounts)
			 OR (to_account_id IS NOT NULL AND to_account_id NOT IN (SELECT id FROM accounts))`,
		}
		if hasAdjustments {
			stmts = append(stmts, `DELETE FROM balance_adjustments WHERE account_id NOT IN (SELECT id FROM accounts)`)
		}
		for _, q := range stmts {
			res, err := tx.ExecContext(ctx, q)
			if err != nil {
				return fmt.Errorf("sweep orphans: %w", err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.Log.Info("swept orphaned rows", zap.Int64("removed", removed))
	}
	return removed, nil
}

// DuplicatePair is a likely duplicate: same account, equal amount, dates
// close together, near-identical description.
type DuplicatePair struct {
	A          repository.Transaction
	B          repository.Transaction
	Similarity float64
}

// DuplicateCandidates scans for probable duplicate transactions, typically
// the residue of a natural-key near-miss during a merge (same purchase,
// slightly different description or date across devices). It only reports;
// deletion stays a user decision.
func (s *MaintenanceService) DuplicateCandidates(ctx context.Context) ([]DuplicatePair, error) {
	txs, err := s.Transactions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []DuplicatePair
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if a.AccountID != b.AccountID || !a.Amount.Equal(b.Amount) || a.Type != b.Type {
				continue
			}
			if daysApart(a.Date, b.Date) > 3 {
				continue
			}
			if sim := descriptionSimilarity(a.Description, b.Description); sim >= 0.6 {
				out = append(out, DuplicatePair{A: a, B: b, Similarity: sim})
			}
		}
	}
	return out, nil
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func descriptionSimilarity(a, b string) float64 {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	if a == b {
		return 1
	}
	// the distance counts runes, so normalize by runes too
	maxlen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxlen {
		maxlen = n
	}
	if maxlen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxlen)
}
