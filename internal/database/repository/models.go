package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrNotAvailable signals that the table backing a repository does not exist
// in the current schema, e.g. after an interrupted upgrade. Callers are
// expected to degrade to an empty result instead of failing outright.
var ErrNotAvailable = errors.New("repository: capability not available in current schema")

// AccountType classifies an account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit-card"
	AccountCash       AccountType = "cash"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

// TxType is the transaction variant tag. Only the fields valid for the
// variant may be set: ToAccountID for transfers, Category for expenses.
type TxType string

const (
	TxIncome   TxType = "income"
	TxExpense  TxType = "expense"
	TxTransfer TxType = "transfer"
)

// ExpenseCategory refines expenses.
type ExpenseCategory string

const (
	CategoryFixed       ExpenseCategory = "fixed"
	CategoryRecurring   ExpenseCategory = "recurring"
	CategoryExceptional ExpenseCategory = "exceptional"
)

// Frequency is the recurrence step of a RecurringTransaction.
type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqBiweekly  Frequency = "biweekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqYearly    Frequency = "yearly"
)

// Step advances t by exactly one frequency interval.
func (f Frequency) Step(t time.Time) time.Time {
	switch f {
	case FreqDaily:
		return t.AddDate(0, 0, 1)
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqBiweekly:
		return t.AddDate(0, 0, 14)
	case FreqQuarterly:
		return t.AddDate(0, 3, 0)
	case FreqYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Account represents an account row.
type Account struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Currency       string          `json:"currency"`
	Archived       bool            `json:"archived"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Transaction represents a transaction row.
type Transaction struct {
	ID          int64            `json:"id"`
	AccountID   int64            `json:"accountId"`
	ToAccountID *int64           `json:"toAccountId,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        TxType           `json:"type"`
	Category    *ExpenseCategory `json:"category,omitempty"`
	Description string           `json:"description"`
	Date        time.Time        `json:"date"`
	RecurringID *int64           `json:"recurringId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Validate checks the variant invariants: a transfer needs a distinct
// destination account, and only expenses carry a category.
func (t Transaction) Validate() error {
	switch t.Type {
	case TxTransfer:
		if t.ToAccountID == nil {
			return fmt.Errorf("transfer requires a destination account")
		}
		if *t.ToAccountID == t.AccountID {
			return fmt.Errorf("transfer source and destination must differ")
		}
	case TxIncome, TxExpense:
		if t.ToAccountID != nil {
			return fmt.Errorf("%s must not set a destination account", t.Type)
		}
	default:
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if t.Category != nil && t.Type != TxExpense {
		return fmt.Errorf("category is only valid for expenses")
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must be a positive magnitude")
	}
	return nil
}

// RecurringTransaction represents a recurring transaction row.
// NextExecution is the materialization cursor: it only ever advances, one
// frequency step per emitted transaction.
type RecurringTransaction struct {
	ID            int64            `json:"id"`
	AccountID     int64            `json:"accountId"`
	ToAccountID   *int64           `json:"toAccountId,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Type          TxType           `json:"type"`
	Category      *ExpenseCategory `json:"category,omitempty"`
	Description   string           `json:"description"`
	Frequency     Frequency        `json:"frequency"`
	StartDate     time.Time        `json:"startDate"`
	EndDate       *time.Time       `json:"endDate,omitempty"`
	NextExecution time.Time        `json:"nextExecution"`
	LastExecuted  *time.Time       `json:"lastExecuted,omitempty"`
	Disabled      bool             `json:"disabled,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Validate checks the same variant invariants as Transaction.Validate.
func (rt RecurringTransaction) Validate() error {
	t := Transaction{
		AccountID:   rt.AccountID,
		ToAccountID: rt.ToAccountID,
		Amount:      rt.Amount,
		Type:        rt.Type,
		Category:    rt.Category,
	}
	return t.Validate()
}

// BalanceAdjustment overrides an account's computed closing balance for one
// calendar month ("2006-01" key). At most one row per (account, month).
type BalanceAdjustment struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"accountId"`
	YearMonth       string          `json:"yearMonth"`
	AdjustedBalance decimal.Decimal `json:"adjustedBalance"`
	Note            *string         `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Preferences is the per-user singleton settings row.
type Preferences struct {
	ID               int64      `json:"id"`
	Currency         string     `json:"currency"`
	Theme            string     `json:"theme"`
	DateFormat       string     `json:"dateFormat"`
	DefaultAccountID *int64     `json:"defaultAccountId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// SyncState tracks the last successful sync and the two one-shot mode
// switches. ForceLocal makes the next pass push local state verbatim;
// ForceRemote makes it adopt the remote state verbatim. Both are cleared
// when consumed.
type SyncState struct {
	DeviceID     string     `json:"deviceId"`
	SyncID       *string    `json:"syncId,omitempty"`
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`
	ForceLocal   bool       `json:"forceLocal,omitempty"`
	ForceRemote  bool       `json:"forceRemote,omitempty"`
}

// NameKey derives the case-insensitive natural key for an account name.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NormalizeName canonicalizes an account name for display: trimmed,
// inner whitespace collapsed, first letter upper-cased.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
