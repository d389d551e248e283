package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAdjustmentSetUpserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	accounts := NewAccountRepo(db)
	adjustments := NewAdjustmentRepo(db)
	acct := seedAccount(t, accounts, "Adjusted")

	first := BalanceAdjustment{AccountID: acct, YearMonth: "2024-03", AdjustedBalance: decimal.NewFromInt(500)}
	require.NoError(t, adjustments.Set(ctx, &first))
	require.NotZero(t, first.ID)

	second := BalanceAdjustment{AccountID: acct, YearMonth: "2024-03", AdjustedBalance: decimal.NewFromInt(750), Note: ptr("recount")}
	require.NoError(t, adjustments.Set(ctx, &second))
	require.Equal(t, first.ID, second.ID, "same month replaces, never duplicates")
	require.True(t, second.CreatedAt.Equal(first.CreatedAt))

	all, err := adjustments.GetAllForAccount(ctx, acct)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].AdjustedBalance.Equal(decimal.NewFromInt(750)))
	require.NotNil(t, all[0].Note)

	got, err := adjustments.Get(ctx, acct, "2024-03")
	require.NoError(t, err)
	require.NotNil(t, got)

	absent, err := adjustments.Get(ctx, acct, "2024-04")
	require.NoError(t, err)
	require.Nil(t, absent)

	require.NoError(t, adjustments.Delete(ctx, acct, "2024-03"))
	gone, err := adjustments.Get(ctx, acct, "2024-03")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestAdjustmentYearMonthValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	accounts := NewAccountRepo(db)
	adjustments := NewAdjustmentRepo(db)
	acct := seedAccount(t, accounts, "Strict")

	for _, ym := range []string{"2024-3", "2024-13", "202403", "March 2024", ""} {
		bad := BalanceAdjustment{AccountID: acct, YearMonth: ym, AdjustedBalance: decimal.Zero}
		require.Error(t, adjustments.Set(ctx, &bad), "yearMonth %q", ym)
	}
}

func TestAdjustmentMissingTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	accounts := NewAccountRepo(db)
	adjustments := NewAdjustmentRepo(db)
	acct := seedAccount(t, accounts, "Degraded")

	_, err := db.Exec(`DROP TABLE balance_adjustments`)
	require.NoError(t, err)

	_, err = adjustments.Get(ctx, acct, "2024-03")
	require.ErrorIs(t, err, ErrNotAvailable)
	_, err = adjustments.GetAllForAccount(ctx, acct)
	require.ErrorIs(t, err, ErrNotAvailable)
	adj := BalanceAdjustment{AccountID: acct, YearMonth: "2024-03", AdjustedBalance: decimal.Zero}
	require.ErrorIs(t, adjustments.Set(ctx, &adj), ErrNotAvailable)
	require.ErrorIs(t, adjustments.Delete(ctx, acct, "2024-03"), ErrNotAvailable)
}
