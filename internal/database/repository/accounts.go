package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/finbook/finbook/internal/database"
)

// AccountRepo handles accounts.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountCols = `id, name, type, initial_balance, currency, archived, created_at, updated_at`

// Create inserts an account and assigns its id. Timestamps are assigned
// unless the caller provided them (merge writes carry remote timestamps).
func (r *AccountRepo) Create(ctx context.Context, a *Account) error {
	a.Name = NormalizeName(a.Name)
	stampNew(&a.CreatedAt, &a.UpdatedAt)
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(name, name_key, type, initial_balance, currency, archived, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, a.Name, NameKey(a.Name), a.Type, a.InitialBalance.String(), a.Currency, a.Archived, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// Update rewrites all mutable columns. created_at is never touched;
// updated_at refreshes unless the caller set it explicitly.
func (r *AccountRepo) Update(ctx context.Context, a *Account) error {
	a.Name = NormalizeName(a.Name)
	stampUpdate(&a.UpdatedAt)
	_, err := r.db.ExecContext(ctx, `
	UPDATE accounts SET name=?, name_key=?, type=?, initial_balance=?, currency=?, archived=?, updated_at=?
	WHERE id=?;
	`, a.Name, NameKey(a.Name), a.Type, a.InitialBalance.String(), a.Currency, a.Archived, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// GetAll returns all accounts ordered by name.
func (r *AccountRepo) GetAll(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountCols+` FROM accounts ORDER BY name_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID returns the account or nil when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id=?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByName looks an account up by its case-insensitive name key.
func (r *AccountRepo) GetByName(ctx context.Context, name string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE name_key=?`, NameKey(name))
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete removes an account and cascades to every dependent row: its
// transactions and recurring transactions (as source or as transfer
// destination) and its balance adjustments. The cascade is explicit
// application policy, not a storage-level foreign key action.
func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	// probe before Begin: the pool has a single connection, so a probe
	// from inside the transaction would block on it
	hasAdjustments, err := database.HasTable(r.db, "balance_adjustments")
	if err != nil {
		return err
	}
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM transactions WHERE account_id=? OR to_account_id=?`,
			`DELETE FROM recurring_transactions WHERE account_id=? OR to_account_id=?`,
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id, id); err != nil {
				return fmt.Errorf("cascade delete: %w", err)
			}
		}
		// adjustments may not exist in older schemas
		if hasAdjustments {
			if _, err := tx.ExecContext(ctx, `DELETE FROM balance_adjustments WHERE account_id=?`, id); err != nil {
				return fmt.Errorf("cascade delete adjustments: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id=?`, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var a Account
	var balance string
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &balance, &a.Currency, &a.Archived, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	var err error
	a.InitialBalance, err = parseDecimal(balance)
	return a, err
}
