package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TransactionPage is one page of a paginated date-range query.
type TransactionPage struct {
	Items []Transaction
	Total int
}

// TransactionRepo handles transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const txCols = `id, account_id, to_account_id, amount, type, category, description, date, recurring_id, created_at, updated_at`

func (r *TransactionRepo) Create(ctx context.Context, t *Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	stampNew(&t.CreatedAt, &t.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(account_id, to_account_id, amount, type, category, description, date, recurring_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, t.AccountID, t.ToAccountID, t.Amount.String(), t.Type, t.Category, t.Description, t.Date, t.RecurringID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (r *TransactionRepo) Update(ctx context.Context, t *Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	stampUpdate(&t.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET account_id=?, to_account_id=?, amount=?, type=?, category=?, description=?, date=?, recurring_id=?, updated_at=?
	WHERE id=?;
	`, t.AccountID, t.ToAccountID, t.Amount.String(), t.Type, t.Category, t.Description, t.Date, t.RecurringID, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id=?`, id)
	return err
}

func (r *TransactionRepo) GetAll(ctx context.Context) ([]Transaction, error) {
	return r.query(ctx, `SELECT `+txCols+` FROM transactions ORDER BY date DESC, id DESC`)
}

func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txCols+` FROM transactions WHERE id=?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByAccount returns transactions where the account is source or
// transfer destination.
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID int64) ([]Transaction, error) {
	return r.query(ctx, `SELECT `+txCols+` FROM transactions WHERE account_id=? OR to_account_id=? ORDER BY date DESC, id DESC`, accountID, accountID)
}

// ListByDateRange returns transactions with from <= date < to.
func (r *TransactionRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return r.query(ctx, `SELECT `+txCols+` FROM transactions WHERE date >= ? AND date < ? ORDER BY date ASC, id ASC`, from, to)
}

// ListByDateRangePage is the paginated variant of ListByDateRange.
// page starts at 1; pageSize must be at least 1.
func (r *TransactionRepo) ListByDateRangePage(ctx context.Context, from, to time.Time, page, pageSize int) (TransactionPage, error) {
	if page < 1 || pageSize < 1 {
		return TransactionPage{}, fmt.Errorf("invalid page %d size %d", page, pageSize)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE date >= ? AND date < ?`, from, to).Scan(&total); err != nil {
		return TransactionPage{}, err
	}
	items, err := r.query(ctx, `SELECT `+txCols+` FROM transactions WHERE date >= ? AND date < ? ORDER BY date ASC, id ASC LIMIT ? OFFSET ?`,
		from, to, pageSize, (page-1)*pageSize)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{Items: items, Total: total}, nil
}

// ListByType returns all transactions of one variant.
func (r *TransactionRepo) ListByType(ctx context.Context, typ TxType) ([]Transaction, error) {
	return r.query(ctx, `SELECT `+txCols+` FROM transactions WHERE type=? ORDER BY date DESC, id DESC`, typ)
}

func (r *TransactionRepo) query(ctx context.Context, q string, args ...any) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	var amount string
	if err := row.Scan(&t.ID, &t.AccountID, &t.ToAccountID, &amount, &t.Type, &t.Category,
		&t.Description, &t.Date, &t.RecurringID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	var err error
	t.Amount, err = parseDecimal(amount)
	return t, err
}
