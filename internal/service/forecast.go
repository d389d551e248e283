package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database/repository"
)

// lookbackMonths bounds the forward fold that derives a month's true
// opening balance. Twelve months is enough to capture any adjustment chain:
// an adjustment replaces the running balance outright, so nothing older can
// leak past it.
const lookbackMonths = 12

// Scope selects the accounts a forecast covers: one account or all of them.
type Scope struct {
	accountID int64
	all       bool
}

// ScopeAccount scopes a forecast to a single account.
func ScopeAccount(id int64) Scope { return Scope{accountID: id} }

// ScopeAll scopes a forecast to all accounts.
func ScopeAll() Scope { return Scope{all: true} }

// Forecast is the balance projection for one scope and month.
type Forecast struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	IsAdjusted     bool            `json:"isAdjusted"`
}

// ForecastService computes monthly balance forecasts. Forecasts are
// advisory: storage failures degrade to a zeroed result instead of
// propagating.
type ForecastService struct {
	Accounts     *repository.AccountRepo
	Transactions *repository.TransactionRepo
	Recurring    *repository.RecurringRepo
	Adjustments  *AdjustmentService
	Log          *zap.Logger
}

// ForecastMonth computes opening balance, income, expense and closing
// balance for the scope and "2006-01" month. An adjustment for the target
// month replaces the closing balance outright and sets IsAdjusted; the
// computed income/expense are still reported for display.
//
// The opening balance is re-derived on every call by folding forward from
// the lookback start, so the adjusted closing balance of month M is always
// exactly the opening balance of month M+1.
func (s *ForecastService) ForecastMonth(ctx context.Context, scope Scope, yearMonth string) (Forecast, error) {
	target, err := parseYearMonth(yearMonth)
	if err != nil {
		return Forecast{}, err
	}
	f, err := s.compute(ctx, scope, target)
	if err != nil {
		// advisory result: degrade to neutral values
		s.Log.Warn("forecast degraded to zero", zap.String("month", yearMonth), zap.Error(err))
		return zeroForecast(), nil
	}
	return f, nil
}

func (s *ForecastService) compute(ctx context.Context, scope Scope, target time.Time) (Forecast, error) {
	var accounts []repository.Account
	if scope.all {
		all, err := s.Accounts.GetAll(ctx)
		if err != nil {
			return Forecast{}, err
		}
		accounts = all
	} else {
		a, err := s.Accounts.GetByID(ctx, scope.accountID)
		if err != nil {
			return Forecast{}, err
		}
		if a == nil {
			return Forecast{}, fmt.Errorf("account %d not found", scope.accountID)
		}
		accounts = []repository.Account{*a}
	}

	lookbackStart := target.AddDate(0, -lookbackMonths, 0)
	windowEnd := target.AddDate(0, 1, 0)
	txs, err := s.Transactions.ListByDateRange(ctx, lookbackStart, windowEnd)
	if err != nil {
		return Forecast{}, err
	}
	rts, err := s.Recurring.GetAll(ctx)
	if err != nil {
		return Forecast{}, err
	}

	total := zeroForecast()
	for _, acct := range accounts {
		adjs, err := s.Adjustments.GetAllForAccount(ctx, acct.ID)
		if err != nil {
			return Forecast{}, err
		}
		adjusted := make(map[string]decimal.Decimal, len(adjs))
		for _, a := range adjs {
			adjusted[a.YearMonth] = a.AdjustedBalance
		}

		// fold forward to the target month's true opening balance
		running := acct.InitialBalance
		for m := lookbackStart; m.Before(target); m = m.AddDate(0, 1, 0) {
			f := monthFlowsFor(acct.ID, m, txs, rts)
			running = running.Add(f.delta())
			if v, ok := adjusted[formatYearMonth(m)]; ok {
				running = v // terminal override, not a delta
			}
		}

		f := monthFlowsFor(acct.ID, target, txs, rts)
		closing := running.Add(f.delta())
		adj, hasAdj := adjusted[formatYearMonth(target)]
		if hasAdj {
			closing = adj
			total.IsAdjusted = true
		}

		total.OpeningBalance = total.OpeningBalance.Add(running)
		total.ClosingBalance = total.ClosingBalance.Add(closing)
		if scope.all {
			// transfers move money between in-scope accounts and
			// net to zero in the aggregate
			total.Income = total.Income.Add(f.income)
			total.Expense = total.Expense.Add(f.expense)
		} else {
			total.Income = total.Income.Add(f.income).Add(f.transferIn)
			total.Expense = total.Expense.Add(f.expense).Add(f.transferOut)
		}
	}
	return total, nil
}

// monthFlows are one account's money movements within one calendar month.
type monthFlows struct {
	income      decimal.Decimal
	expense     decimal.Decimal
	transferIn  decimal.Decimal
	transferOut decimal.Decimal
}

func (f monthFlows) delta() decimal.Decimal {
	return f.income.Add(f.transferIn).Sub(f.expense).Sub(f.transferOut)
}

// monthFlowsFor sums recorded transactions and recurring projections for
// one account in the month starting at monthStart. A transfer debits the
// source's expense side and credits the destination's income side.
func monthFlowsFor(accountID int64, monthStart time.Time, txs []repository.Transaction, rts []repository.RecurringTransaction) monthFlows {
	monthEnd := monthStart.AddDate(0, 1, 0)
	var f monthFlows

	apply := func(typ repository.TxType, amount decimal.Decimal, srcID int64, dstID *int64) {
		switch typ {
		case repository.TxIncome:
			if srcID == accountID {
				f.income = f.income.Add(amount)
			}
		case repository.TxExpense:
			if srcID == accountID {
				f.expense = f.expense.Add(amount)
			}
		case repository.TxTransfer:
			if srcID == accountID {
				f.transferOut = f.transferOut.Add(amount)
			}
			if dstID != nil && *dstID == accountID {
				f.transferIn = f.transferIn.Add(amount)
			}
		}
	}

	for _, t := range txs {
		if t.Date.Before(monthStart) || !t.Date.Before(monthEnd) {
			continue
		}
		apply(t.Type, t.Amount, t.AccountID, t.ToAccountID)
	}

	for _, rt := range rts {
		for range projectedOccurrences(rt, monthStart, monthEnd) {
			apply(rt.Type, rt.Amount, rt.AccountID, rt.ToAccountID)
		}
	}
	return f
}

// projectedOccurrences lists the dates a recurring transaction is expected
// to fire within [monthStart, monthEnd). Projection starts at the
// materialization cursor: anything before it already exists as a concrete
// transaction and must not be counted twice.
func projectedOccurrences(rt repository.RecurringTransaction, monthStart, monthEnd time.Time) []time.Time {
	if rt.Disabled {
		return nil
	}
	var out []time.Time
	for d := rt.NextExecution; d.Before(monthEnd); d = rt.Frequency.Step(d) {
		if rt.EndDate != nil && d.After(*rt.EndDate) {
			break
		}
		if !d.Before(monthStart) {
			out = append(out, d)
		}
	}
	return out
}

func zeroForecast() Forecast {
	return Forecast{
		OpeningBalance: decimal.Zero,
		Income:         decimal.Zero,
		Expense:        decimal.Zero,
		ClosingBalance: decimal.Zero,
	}
}

func parseYearMonth(s string) (time.Time, error) {
	if !repository.ValidYearMonth(s) {
		return time.Time{}, fmt.Errorf("invalid year-month %q, want \"2006-01\"", s)
	}
	return time.Parse("2006-01", s)
}

func formatYearMonth(t time.Time) string {
	return t.Format("2006-01")
}
