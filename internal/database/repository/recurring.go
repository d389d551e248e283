package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecurringRepo handles recurring transactions.
type RecurringRepo struct {
	db *sql.DB
}

func NewRecurringRepo(db *sql.DB) *RecurringRepo { return &RecurringRepo{db: db} }

const recurringCols = `id, account_id, to_account_id, amount, type, category, description, frequency, start_date, end_date, next_execution, last_executed, disabled, created_at, updated_at`

func (r *RecurringRepo) Create(ctx context.Context, rt *RecurringTransaction) error {
	if rt.NextExecution.IsZero() {
		rt.NextExecution = rt.StartDate
	}
	stampNew(&rt.CreatedAt, &rt.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_transactions(account_id, to_account_id, amount, type, category, description, frequency, start_date, end_date, next_execution, last_executed, disabled, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, rt.AccountID, rt.ToAccountID, rt.Amount.String(), rt.Type, rt.Category, rt.Description,
		rt.Frequency, rt.StartDate, rt.EndDate, rt.NextExecution, rt.LastExecuted, rt.Disabled, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert recurring transaction: %w", err)
	}
	rt.ID, err = res.LastInsertId()
	return err
}

// Update rewrites all mutable columns. The next_execution cursor must never
// retreat; updates attempting to move it backwards are rejected.
func (r *RecurringRepo) Update(ctx context.Context, rt *RecurringTransaction) error {
	cur, err := r.GetByID(ctx, rt.ID)
	if err != nil {
		return err
	}
	if cur != nil && rt.NextExecution.Before(cur.NextExecution) {
		return fmt.Errorf("next_execution cursor cannot retreat (%s -> %s)",
			cur.NextExecution.Format("2006-01-02"), rt.NextExecution.Format("2006-01-02"))
	}
	stampUpdate(&rt.UpdatedAt)
	_, err = r.db.ExecContext(ctx, `
	UPDATE recurring_transactions SET account_id=?, to_account_id=?, amount=?, type=?, category=?, description=?, frequency=?, start_date=?, end_date=?, next_execution=?, last_executed=?, disabled=?, updated_at=?
	WHERE id=?;
	`, rt.AccountID, rt.ToAccountID, rt.Amount.String(), rt.Type, rt.Category, rt.Description,
		rt.Frequency, rt.StartDate, rt.EndDate, rt.NextExecution, rt.LastExecuted, rt.Disabled, rt.UpdatedAt, rt.ID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return nil
}

func (r *RecurringRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id=?`, id)
	return err
}

func (r *RecurringRepo) GetAll(ctx context.Context) ([]RecurringTransaction, error) {
	return r.query(ctx, `SELECT `+recurringCols+` FROM recurring_transactions ORDER BY next_execution ASC, id ASC`)
}

func (r *RecurringRepo) GetByID(ctx context.Context, id int64) (*RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringCols+` FROM recurring_transactions WHERE id=?`, id)
	rt, err := scanRecurring(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RecurringRepo) ListByAccount(ctx context.Context, accountID int64) ([]RecurringTransaction, error) {
	return r.query(ctx, `SELECT `+recurringCols+` FROM recurring_transactions WHERE account_id=? OR to_account_id=? ORDER BY next_execution ASC, id ASC`, accountID, accountID)
}

// ListDue returns enabled recurring transactions whose cursor is at or
// before asOf.
func (r *RecurringRepo) ListDue(ctx context.Context, asOf time.Time) ([]RecurringTransaction, error) {
	return r.query(ctx, `SELECT `+recurringCols+` FROM recurring_transactions WHERE disabled=0 AND next_execution <= ? ORDER BY next_execution ASC, id ASC`, asOf)
}

func (r *RecurringRepo) query(ctx context.Context, q string, args ...any) ([]RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func scanRecurring(row rowScanner) (RecurringTransaction, error) {
	var rt RecurringTransaction
	var amount string
	if err := row.Scan(&rt.ID, &rt.AccountID, &rt.ToAccountID, &amount, &rt.Type, &rt.Category,
		&rt.Description, &rt.Frequency, &rt.StartDate, &rt.EndDate, &rt.NextExecution,
		&rt.LastExecuted, &rt.Disabled, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return RecurringTransaction{}, err
	}
	var err error
	rt.Amount, err = parseDecimal(amount)
	return rt, err
}
