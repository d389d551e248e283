package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database"
	"github.com/finbook/finbook/internal/database/repository"
)

type fixture struct {
	db           *sql.DB
	accounts     *repository.AccountRepo
	transactions *repository.TransactionRepo
	recurring    *repository.RecurringRepo
	adjustments  *AdjustmentService
	forecast     *ForecastService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db))

	f := &fixture{
		db:           db,
		accounts:     repository.NewAccountRepo(db),
		transactions: repository.NewTransactionRepo(db),
		recurring:    repository.NewRecurringRepo(db),
	}
	f.adjustments = &AdjustmentService{Repo: repository.NewAdjustmentRepo(db), Log: zap.NewNop()}
	f.forecast = &ForecastService{
		Accounts:     f.accounts,
		Transactions: f.transactions,
		Recurring:    f.recurring,
		Adjustments:  f.adjustments,
		Log:          zap.NewNop(),
	}
	return f
}

func (f *fixture) account(t *testing.T, name string, initial int64) repository.Account {
	t.Helper()
	a := repository.Account{
		Name: name, Type: repository.AccountChecking,
		InitialBalance: decimal.NewFromInt(initial), Currency: "EUR",
	}
	require.NoError(t, f.accounts.Create(context.Background(), &a))
	return a
}

func (f *fixture) expense(t *testing.T, acct int64, amount int64, date time.Time) {
	t.Helper()
	tx := repository.Transaction{
		AccountID: acct, Amount: decimal.NewFromInt(amount),
		Type: repository.TxExpense, Description: "e", Date: date,
	}
	require.NoError(t, f.transactions.Create(context.Background(), &tx))
}

func (f *fixture) income(t *testing.T, acct int64, amount int64, date time.Time) {
	t.Helper()
	tx := repository.Transaction{
		AccountID: acct, Amount: decimal.NewFromInt(amount),
		Type: repository.TxIncome, Description: "i", Date: date,
	}
	require.NoError(t, f.transactions.Create(context.Background(), &tx))
}

func (f *fixture) transfer(t *testing.T, from, to int64, amount int64, date time.Time) {
	t.Helper()
	tx := repository.Transaction{
		AccountID: from, ToAccountID: &to, Amount: decimal.NewFromInt(amount),
		Type: repository.TxTransfer, Description: "t", Date: date,
	}
	require.NoError(t, f.transactions.Create(context.Background(), &tx))
}

func eq(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got.String())
}
