package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/finbook/finbook/internal/database/repository"
)

func TestForecastSingleAccountMonth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 1000)
	f.expense(t, a.ID, 200, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	got, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 1000, got.OpeningBalance)
	eq(t, 0, got.Income)
	eq(t, 200, got.Expense)
	eq(t, 800, got.ClosingBalance)
	require.False(t, got.IsAdjusted)
}

func TestForecastAdjustmentOverridesClosing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 1000)
	f.expense(t, a.ID, 200, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	ok, err := f.adjustments.Set(ctx, a.ID, "2024-03", decimal.NewFromInt(500), "recount")
	require.NoError(t, err)
	require.True(t, ok)

	mar, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 1000, mar.OpeningBalance)
	eq(t, 200, mar.Expense)
	eq(t, 500, mar.ClosingBalance)
	require.True(t, mar.IsAdjusted)

	// the override propagates: next month opens at the adjusted value
	apr, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-04")
	require.NoError(t, err)
	eq(t, 500, apr.OpeningBalance)
	eq(t, 500, apr.ClosingBalance)
	require.False(t, apr.IsAdjusted)
}

func TestForecastContinuity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 300)
	f.income(t, a.ID, 100, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC))
	f.expense(t, a.ID, 40, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	f.expense(t, a.ID, 60, time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC))

	months := []string{"2024-02", "2024-03", "2024-04", "2024-05"}
	var prev *Forecast
	for _, ym := range months {
		got, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), ym)
		require.NoError(t, err)
		if prev != nil {
			require.True(t, got.OpeningBalance.Equal(prev.ClosingBalance),
				"%s opening %s != previous closing %s", ym, got.OpeningBalance, prev.ClosingBalance)
		}
		prev = &got
	}
	eq(t, 300, prev.ClosingBalance) // 300 +100 -40 -60
}

func TestForecastAllAccountsTransfersNetOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 1000)
	b := f.account(t, "B", 500)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	f.transfer(t, a.ID, b.ID, 100, day)

	all, err := f.forecast.ForecastMonth(ctx, ScopeAll(), "2024-03")
	require.NoError(t, err)
	eq(t, 1500, all.OpeningBalance)
	eq(t, 0, all.Income)
	eq(t, 0, all.Expense)
	eq(t, 1500, all.ClosingBalance)

	// per-account the transfer is visible
	onlyA, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 100, onlyA.Expense)
	eq(t, 900, onlyA.ClosingBalance)

	onlyB, err := f.forecast.ForecastMonth(ctx, ScopeAccount(b.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 100, onlyB.Income)
	eq(t, 600, onlyB.ClosingBalance)

	// a real expense still shows in the aggregate
	f.expense(t, a.ID, 100, day)
	all, err = f.forecast.ForecastMonth(ctx, ScopeAll(), "2024-03")
	require.NoError(t, err)
	eq(t, 100, all.Expense)
	eq(t, 1400, all.ClosingBalance)
}

func TestForecastProjectsRecurring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 1000)

	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	rt := repository.RecurringTransaction{
		AccountID: a.ID, Amount: decimal.NewFromInt(50), Type: repository.TxExpense,
		Description: "sub", Frequency: repository.FreqWeekly, StartDate: start,
	}
	require.NoError(t, f.recurring.Create(ctx, &rt))

	// weekly from Mar 5: Mar 5, 12, 19, 26 project into March
	mar, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 200, mar.Expense)
	eq(t, 800, mar.ClosingBalance)

	// advancing the cursor removes already-materialized occurrences from
	// the projection
	rt.NextExecution = time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.recurring.Update(ctx, &rt))
	mar, err = f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 100, mar.Expense) // Mar 19 and 26 remain
}

func TestForecastDisabledRecurringIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 1000)

	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	rt := repository.RecurringTransaction{
		AccountID: a.ID, Amount: decimal.NewFromInt(50), Type: repository.TxExpense,
		Description: "sub", Frequency: repository.FreqWeekly, StartDate: start, Disabled: true,
	}
	require.NoError(t, f.recurring.Create(ctx, &rt))

	mar, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-03")
	require.NoError(t, err)
	eq(t, 0, mar.Expense)
	eq(t, 1000, mar.ClosingBalance)
}

func TestForecastBadMonthRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.account(t, "A", 0)

	_, err := f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "2024-3")
	require.Error(t, err)
	_, err = f.forecast.ForecastMonth(ctx, ScopeAccount(a.ID), "March")
	require.Error(t, err)
}

func TestForecastDegradesOnStorageFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	// unknown account is a compute failure, reported as a zero forecast
	got, err := f.forecast.ForecastMonth(ctx, ScopeAccount(9999), "2024-03")
	require.NoError(t, err)
	eq(t, 0, got.OpeningBalance)
	eq(t, 0, got.ClosingBalance)
	require.False(t, got.IsAdjusted)
}
