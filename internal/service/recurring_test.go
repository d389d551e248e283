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

func newMaterializer(f *fixture) *Materializer {
	return &Materializer{Transactions: f.transactions, Recurring: f.recurring, Log: zap.NewNop()}
}

func TestMaterializerCatchesUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rt := repository.RecurringTransaction{
		AccountID: a.ID, Amount: decimal.NewFromInt(12), Type: repository.TxExpense,
		Description: "streaming", Frequency: repository.FreqMonthly, StartDate: start,
	}
	require.NoError(t, f.recurring.Create(ctx, &rt))

	asOf := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	n, err := newMaterializer(f).Run(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 3, n, "Jan 15, Feb 15, Mar 15")

	txs, err := f.transactions.ListByAccount(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		require.NotNil(t, tx.RecurringID)
		require.Equal(t, rt.ID, *tx.RecurringID)
		require.Equal(t, 15, tx.Date.Day())
	}

	got, err := f.recurring.GetByID(ctx, rt.ID)
	require.NoError(t, err)
	require.True(t, got.NextExecution.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, got.LastExecuted)
	require.True(t, got.LastExecuted.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestMaterializerIdempotentPerDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rt := repository.RecurringTransaction{
		AccountID: a.ID, Amount: decimal.NewFromInt(5), Type: repository.TxExpense,
		Description: "daily", Frequency: repository.FreqDaily, StartDate: start,
	}
	require.NoError(t, f.recurring.Create(ctx, &rt))

	asOf := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	m := newMaterializer(f)

	n, err := m.Run(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = m.Run(ctx, asOf)
	require.NoError(t, err)
	require.Zero(t, n, "second run finds the cursor already past asOf")
}

func TestMaterializerStopsAtEndDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	rt := repository.RecurringTransaction{
		AccountID: a.ID, Amount: decimal.NewFromInt(9), Type: repository.TxExpense,
		Description: "expiring", Frequency: repository.FreqMonthly,
		StartDate: start, EndDate: &end,
	}
	require.NoError(t, f.recurring.Create(ctx, &rt))

	n, err := newMaterializer(f).Run(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, n, "Jan 1 and Feb 1 only")
}

func TestMaterializerSkipsDisabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)

	rt := repository.RecurringTransaction{
		AccountID: a.ID, Amount: decimal.NewFromInt(9), Type: repository.TxExpense,
		Description: "off", Frequency: repository.FreqDaily,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Disabled: true,
	}
	require.NoError(t, f.recurring.Create(ctx, &rt))

	n, err := newMaterializer(f).Run(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Zero(t, n)
}
