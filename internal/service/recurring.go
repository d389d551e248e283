package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database/repository"
)

// Materializer turns due recurring transactions into concrete transactions.
type Materializer struct {
	Transactions *repository.TransactionRepo
	Recurring    *repository.RecurringRepo
	Log          *zap.Logger
}

// Run materializes every enabled recurring transaction whose cursor is at
// or before asOf. Each emitted transaction advances next_execution by
// exactly one frequency step; the cursor never retreats. Returns the number
// of transactions created.
func (m *Materializer) Run(ctx context.Context, asOf time.Time) (int, error) {
	due, err := m.Recurring.ListDue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list due recurring: %w", err)
	}

	created := 0
	for _, rt := range due {
		for !rt.NextExecution.After(asOf) {
			if rt.EndDate != nil && rt.NextExecution.After(*rt.EndDate) {
				break
			}
			tx := repository.Transaction{
				AccountID:   rt.AccountID,
				ToAccountID: rt.ToAccountID,
				Amount:      rt.Amount,
				Type:        rt.Type,
				Category:    rt.Category,
				Description: rt.Description,
				Date:        rt.NextExecution,
				RecurringID: &rt.ID,
			}
			if err := m.Transactions.Create(ctx, &tx); err != nil {
				return created, fmt.Errorf("materialize recurring %d: %w", rt.ID, err)
			}
			executed := rt.NextExecution
			rt.LastExecuted = &executed
			rt.NextExecution = rt.Frequency.Step(rt.NextExecution)
			rt.UpdatedAt = time.Time{} // refresh on update
			if err := m.Recurring.Update(ctx, &rt); err != nil {
				return created, fmt.Errorf("advance recurring %d: %w", rt.ID, err)
			}
			created++
		}
	}
	if created > 0 {
		m.Log.Info("materialized recurring transactions", zap.Int("count", created))
	}
	return created, nil
}
