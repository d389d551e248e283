package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database/repository"
)

func newMaintenance(f *fixture) *MaintenanceService {
	return &MaintenanceService{DB: f.db, Transactions: f.transactions, Log: zap.NewNop()}
}

func TestSweepOrphans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	keep := f.account(t, "Keep", 0)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	f.expense(t, keep.ID, 10, day)

	// rows referencing account ids that never existed locally, e.g. left
	// behind after a deletion on another device
	ghost := int64(404)
	orphan := repository.Transaction{
		AccountID: ghost, Amount: decimal.NewFromInt(20),
		Type: repository.TxExpense, Description: "orphan", Date: day,
	}
	require.NoError(t, f.transactions.Create(ctx, &orphan))
	halfOrphan := repository.Transaction{
		AccountID: keep.ID, ToAccountID: &ghost, Amount: decimal.NewFromInt(30),
		Type: repository.TxTransfer, Description: "dangling dest", Date: day,
	}
	require.NoError(t, f.transactions.Create(ctx, &halfOrphan))
	orphanRt := repository.RecurringTransaction{
		AccountID: ghost, Amount: decimal.NewFromInt(5), Type: repository.TxExpense,
		Description: "orphan rt", Frequency: repository.FreqMonthly, StartDate: day,
	}
	require.NoError(t, f.recurring.Create(ctx, &orphanRt))

	removed, err := newMaintenance(f).SweepOrphans(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)

	txs, err := f.transactions.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "e", txs[0].Description)
}

func TestWipeEntitiesKeepsSyncState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)
	f.expense(t, a.ID, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	state := repository.NewSyncStateRepo(f.db)
	before, err := state.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, newMaintenance(f).WipeEntities(ctx))

	accounts, err := f.accounts.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)

	after, err := state.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, before.DeviceID, after.DeviceID, "sync state survives a wipe")
}

func TestWipeEntitiesWithoutAdjustmentsTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)
	f.expense(t, a.ID, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	_, err := f.db.Exec(`DROP TABLE balance_adjustments`)
	require.NoError(t, err)

	require.NoError(t, newMaintenance(f).WipeEntities(ctx))
	accounts, err := f.accounts.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestSweepOrphansWithoutAdjustmentsTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orphan := repository.Transaction{
		AccountID: 404, Amount: decimal.NewFromInt(20),
		Type: repository.TxExpense, Description: "orphan", Date: day,
	}
	require.NoError(t, f.transactions.Create(ctx, &orphan))

	_, err := f.db.Exec(`DROP TABLE balance_adjustments`)
	require.NoError(t, err)

	removed, err := newMaintenance(f).SweepOrphans(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}

func TestResetClearsSyncState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.account(t, "A", 0)

	state := repository.NewSyncStateRepo(f.db)
	before, err := state.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, newMaintenance(f).Reset(ctx))

	after, err := state.Get(ctx)
	require.NoError(t, err)
	require.NotEqual(t, before.DeviceID, after.DeviceID, "reset mints a fresh device identity")
}

func TestDuplicateCandidates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)
	b := f.account(t, "B", 0)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	mk := func(acct int64, amount int64, desc string, date time.Time) {
		tx := repository.Transaction{
			AccountID: acct, Amount: decimal.NewFromInt(amount),
			Type: repository.TxExpense, Description: desc, Date: date,
		}
		require.NoError(t, f.transactions.Create(ctx, &tx))
	}

	mk(a.ID, 42, "CARREFOUR MARKET", day)
	// near-duplicate: next day, one typo apart
	mk(a.ID, 42, "Carrefour Markt", day.AddDate(0, 0, 1))
	// same amount but unrelated description
	mk(a.ID, 42, "RENT", day)
	// identical but too far apart in time
	mk(a.ID, 42, "CARREFOUR MARKET", day.AddDate(0, 0, 10))
	// identical but on another account
	mk(b.ID, 42, "CARREFOUR MARKET", day)

	pairs, err := newMaintenance(f).DuplicateCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.GreaterOrEqual(t, pairs[0].Similarity, 0.6)
	require.Equal(t, pairs[0].A.AccountID, pairs[0].B.AccountID)
}

func TestDescriptionSimilarity(t *testing.T) {
	t.Parallel()
	require.Equal(t, 1.0, descriptionSimilarity("Rent", "RENT"))
	require.Equal(t, 1.0, descriptionSimilarity("", ""))
	require.Less(t, descriptionSimilarity("RENT", "GROCERIES"), 0.6)
	require.GreaterOrEqual(t, descriptionSimilarity("CARREFOUR MARKET", "CARREFOUR MARKT"), 0.9)
}

func TestDescriptionSimilarityMultiByte(t *testing.T) {
	t.Parallel()
	// 4 runes, 1 apart: the ratio comes from rune counts, not byte length
	require.InDelta(t, 0.75, descriptionSimilarity("ÉÉÉÉ", "ÉÉÉA"), 1e-9)
	require.GreaterOrEqual(t, descriptionSimilarity("CAFÉ MÜLLER", "CAFE MÜLLER"), 0.9)
}
