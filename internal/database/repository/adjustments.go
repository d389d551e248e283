package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/finbook/finbook/internal/database"
)

var yearMonthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidYearMonth reports whether s is a "2006-01" calendar-month key.
func ValidYearMonth(s string) bool { return yearMonthRe.MatchString(s) }

// AdjustmentRepo handles balance adjustments. The backing table arrived in
// schema v2; every method answers ErrNotAvailable when it is missing so a
// half-upgraded store degrades instead of crashing a sync pass.
type AdjustmentRepo struct {
	db *sql.DB
}

func NewAdjustmentRepo(db *sql.DB) *AdjustmentRepo { return &AdjustmentRepo{db: db} }

const adjustmentCols = `id, account_id, year_month, adjusted_balance, note, created_at, updated_at`

func (r *AdjustmentRepo) available() error {
	ok, err := database.HasTable(r.db, "balance_adjustments")
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAvailable
	}
	return nil
}

// Get returns the adjustment for (account, month), or nil when none exists.
func (r *AdjustmentRepo) Get(ctx context.Context, accountID int64, yearMonth string) (*BalanceAdjustment, error) {
	if err := r.available(); err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+adjustmentCols+` FROM balance_adjustments WHERE account_id=? AND year_month=?`, accountID, yearMonth)
	a, err := scanAdjustment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdjustmentRepo) GetAll(ctx context.Context) ([]BalanceAdjustment, error) {
	if err := r.available(); err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT `+adjustmentCols+` FROM balance_adjustments ORDER BY account_id, year_month`)
}

func (r *AdjustmentRepo) GetAllForAccount(ctx context.Context, accountID int64) ([]BalanceAdjustment, error) {
	if err := r.available(); err != nil {
		return nil, err
	}
	return r.query(ctx, `SELECT `+adjustmentCols+` FROM balance_adjustments WHERE account_id=? ORDER BY year_month`, accountID)
}

// Set upserts the adjustment for (account, month). The uniqueness constraint
// on (account_id, year_month) makes this race-free: an existing row keeps
// its id and created_at, and only balance, note and updated_at change.
func (r *AdjustmentRepo) Set(ctx context.Context, a *BalanceAdjustment) error {
	if err := r.available(); err != nil {
		return err
	}
	if !ValidYearMonth(a.YearMonth) {
		return fmt.Errorf("invalid year-month %q", a.YearMonth)
	}
	stampNew(&a.CreatedAt, &a.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO balance_adjustments(account_id, year_month, adjusted_balance, note, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(account_id, year_month) DO UPDATE SET
	 adjusted_balance=excluded.adjusted_balance,
	 note=excluded.note,
	 updated_at=excluded.updated_at;
	`, a.AccountID, a.YearMonth, a.AdjustedBalance.String(), a.Note, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert adjustment: %w", err)
	}
	stored, err := r.Get(ctx, a.AccountID, a.YearMonth)
	if err != nil {
		return err
	}
	if stored != nil {
		*a = *stored
	}
	return nil
}

// Delete removes the adjustment for (account, month). Deleting a missing
// row is not an error.
func (r *AdjustmentRepo) Delete(ctx context.Context, accountID int64, yearMonth string) error {
	if err := r.available(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM balance_adjustments WHERE account_id=? AND year_month=?`, accountID, yearMonth)
	return err
}

func (r *AdjustmentRepo) query(ctx context.Context, q string, args ...any) ([]BalanceAdjustment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BalanceAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAdjustment(row rowScanner) (BalanceAdjustment, error) {
	var a BalanceAdjustment
	var balance string
	if err := row.Scan(&a.ID, &a.AccountID, &a.YearMonth, &balance, &a.Note, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return BalanceAdjustment{}, err
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return BalanceAdjustment{}, err
	}
	a.AdjustedBalance = d
	return a, nil
}
