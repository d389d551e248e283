// Package remote defines the contract with the authoritative per-user copy
// of the data. The sync orchestrator is the only consumer; implementations
// exchange whole snapshots, never incremental changes.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/finbook/finbook/internal/database/repository"
)

// ErrUnreachable wraps transport failures talking to the remote store.
var ErrUnreachable = errors.New("remote: unreachable")

// Credentials identify the remote copy. The password is assumed already
// verified by the login service; it is only relayed here.
type Credentials struct {
	Username string
	Password string
}

// Snapshot is the complete per-user state exchanged with the remote store.
// BalanceAdjustments is optional: older clients never wrote it.
type Snapshot struct {
	Accounts              []repository.Account              `json:"accounts"`
	Transactions          []repository.Transaction          `json:"transactions"`
	RecurringTransactions []repository.RecurringTransaction `json:"recurringTransactions"`
	Preferences           *repository.Preferences           `json:"preferences,omitempty"`
	BalanceAdjustments    []repository.BalanceAdjustment    `json:"balanceAdjustments,omitempty"`
	LastSyncTime          time.Time                         `json:"lastSyncTime"`
	SyncID                string                            `json:"syncId,omitempty"`
	DeviceID              string                            `json:"deviceId,omitempty"`
}

// Store is the remote collaborator contract.
type Store interface {
	// LoadSnapshot returns the remote snapshot, or (nil, nil) when the
	// identity has no remote data yet.
	LoadSnapshot(ctx context.Context, creds Credentials) (*Snapshot, error)
	// SaveSnapshot replaces the remote snapshot in one all-or-nothing
	// round trip.
	SaveSnapshot(ctx context.Context, creds Credentials, snap *Snapshot) error
}
