// Package syncer reconciles the local entity store with the remote
// authoritative snapshot. One pass fetches the remote snapshot, merges every
// entity kind by natural key and recency, pushes the merged state back and
// records the outcome in the persisted sync state. At most one pass runs at
// a time per client.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/database"
	"github.com/finbook/finbook/internal/database/repository"
	"github.com/finbook/finbook/internal/remote"
)

// ErrSyncInProgress is returned when a pass is refused because another one
// is still running.
var ErrSyncInProgress = errors.New("syncer: sync already in progress")

// Phase is the orchestrator state: Idle -> Syncing -> Done | Failed.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSyncing
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSyncing:
		return "syncing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Progress is reported to the caller after each stage of a pass. Initial is
// true on the first pass after login, used for progress display only.
type Progress struct {
	Stage   string
	Initial bool
}

// Repos bundles the repositories a pass reads and writes.
type Repos struct {
	Accounts     *repository.AccountRepo
	Transactions *repository.TransactionRepo
	Recurring    *repository.RecurringRepo
	Adjustments  *repository.AdjustmentRepo
	Preferences  *repository.PreferencesRepo
	State        *repository.SyncStateRepo
}

// Syncer coordinates sync passes.
type Syncer struct {
	repos  Repos
	remote remote.Store
	log    *zap.Logger

	// Wipe clears all entity rows; required for adopting a remote
	// snapshot verbatim (the forceRemote switch).
	Wipe func(ctx context.Context) error

	// OnProgress, when set, receives stage updates during a pass.
	OnProgress func(Progress)

	mu        sync.Mutex
	phase     Phase
	gen       uint64 // pass generation, bumped on start and on Abandon
	startedAt time.Time
	initial   bool
}

// New builds a Syncer over the given repositories and remote store.
func New(repos Repos, store remote.Store, log *zap.Logger) *Syncer {
	return &Syncer{repos: repos, remote: store, log: log}
}

// Phase returns the current orchestrator phase.
func (s *Syncer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// StartedAt returns when the in-flight pass began; zero when none is
// running. Callers use it to surface "taking longer than expected" states.
func (s *Syncer) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseSyncing {
		return time.Time{}
	}
	return s.startedAt
}

// Abandon force-clears a stuck pass's tracking state so a new pass may
// start. The in-flight pass keeps running until its next suspension point
// but its outcome is discarded; the store is never left half-written
// because pushes are all-or-nothing.
func (s *Syncer) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSyncing {
		s.gen++
		s.phase = PhaseIdle
		s.log.Warn("sync pass abandoned")
	}
}

// Sync runs one full pass. It refuses to start while another pass is in
// flight and never leaves local data half-merged on failure: local rows are
// only written during the merge stage, and the push is a single
// all-or-nothing round trip.
func (s *Syncer) Sync(ctx context.Context, creds remote.Credentials) error {
	s.mu.Lock()
	if s.phase == PhaseSyncing {
		s.mu.Unlock()
		return ErrSyncInProgress
	}
	s.phase = PhaseSyncing
	s.gen++
	gen := s.gen
	s.startedAt = time.Now()
	s.mu.Unlock()

	err := s.run(ctx, creds)

	s.mu.Lock()
	if s.gen == gen { // pass not abandoned meanwhile
		if err != nil {
			s.phase = PhaseFailed
		} else {
			s.phase = PhaseDone
		}
	}
	s.mu.Unlock()
	return err
}

func (s *Syncer) run(ctx context.Context, creds remote.Credentials) error {
	st, err := s.repos.State.Get(ctx)
	if err != nil {
		return fmt.Errorf("read sync state: %w", err)
	}
	s.initial = st.LastSyncTime == nil

	s.report("reading local data")
	local, err := s.readLocal(ctx)
	if err != nil {
		return fmt.Errorf("read local snapshot: %w", err)
	}

	if st.ForceLocal {
		s.report("pushing local data")
		syncID := uuid.NewString()
		if err := s.push(ctx, creds, local, syncID, st.DeviceID); err != nil {
			return err
		}
		st.ForceLocal = false // consumed
		return s.finish(ctx, st, syncID)
	}

	s.report("fetching remote data")
	rs, err := s.remote.LoadSnapshot(ctx, creds)
	if err != nil {
		// Local data stays untouched; the push is skipped and the
		// next pass retries.
		return fmt.Errorf("fetch remote snapshot: %w", err)
	}

	if rs == nil || len(rs.Accounts) == 0 {
		if st.ForceRemote {
			// Nothing to adopt. Leave the switch armed so the
			// next pass can retry.
			return fmt.Errorf("remote has no data to adopt")
		}
		// First sync for this remote identity: bootstrap it from the
		// local snapshot.
		s.report("uploading initial data")
		syncID := uuid.NewString()
		if err := s.push(ctx, creds, local, syncID, st.DeviceID); err != nil {
			return err
		}
		return s.finish(ctx, st, syncID)
	}

	if st.ForceRemote {
		s.report("importing remote data")
		if err := s.adoptRemote(ctx, rs); err != nil {
			return fmt.Errorf("adopt remote snapshot: %w", err)
		}
		st.ForceRemote = false // consumed
		return s.finish(ctx, st, s.syncID(rs))
	}

	if err := s.reconcile(ctx, rs); err != nil {
		return err
	}

	s.report("uploading merged data")
	merged, err := s.readLocal(ctx)
	if err != nil {
		return fmt.Errorf("re-read merged snapshot: %w", err)
	}
	syncID := s.syncID(rs)
	if err := s.push(ctx, creds, merged, syncID, st.DeviceID); err != nil {
		return err
	}
	return s.finish(ctx, st, syncID)
}

// reconcile merges each entity kind in dependency order. Accounts must be
// fully resolved first: every other kind needs the id translation built
// during the account pass.
func (s *Syncer) reconcile(ctx context.Context, rs *remote.Snapshot) error {
	s.report("resolving accounts")
	idmap, err := s.resolveAccounts(ctx, rs.Accounts)
	if err != nil {
		return fmt.Errorf("resolve accounts: %w", err)
	}

	s.report("merging balance adjustments")
	if err := s.mergeAdjustments(ctx, rs.BalanceAdjustments, idmap); err != nil {
		return fmt.Errorf("merge adjustments: %w", err)
	}

	s.report("merging transactions")
	if err := s.mergeTransactions(ctx, rs.Transactions, idmap); err != nil {
		return fmt.Errorf("merge transactions: %w", err)
	}

	s.report("merging recurring transactions")
	if err := s.mergeRecurring(ctx, rs.RecurringTransactions, idmap); err != nil {
		return fmt.Errorf("merge recurring transactions: %w", err)
	}

	s.report("merging preferences")
	if err := s.mergePreferences(ctx, rs.Preferences, idmap); err != nil {
		return fmt.Errorf("merge preferences: %w", err)
	}
	return nil
}

// resolveAccounts merges remote accounts by normalized name and returns the
// remote-to-local id translation. Matched accounts register a translation
// even when local wins, so references on the remaining kinds always remap.
func (s *Syncer) resolveAccounts(ctx context.Context, remoteAccts []repository.Account) (IDMap, error) {
	idmap := IDMap{}
	local, err := s.repos.Accounts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]repository.Account, len(local))
	for _, la := range local {
		index[accountKey(la)] = la
	}
	for _, ra := range remoteAccts {
		la, ok := index[accountKey(ra)]
		if !ok {
			remoteID := ra.ID
			ra.ID = 0
			if err := s.repos.Accounts.Create(ctx, &ra); err != nil {
				return nil, err
			}
			idmap[remoteID] = ra.ID
			continue
		}
		idmap[ra.ID] = la.ID
		if isMoreRecent(ra.UpdatedAt, la.UpdatedAt) {
			ra.ID = la.ID
			ra.CreatedAt = la.CreatedAt
			if err := s.repos.Accounts.Update(ctx, &ra); err != nil {
				return nil, err
			}
		}
	}
	return idmap, nil
}

func (s *Syncer) mergeTransactions(ctx context.Context, remoteTxs []repository.Transaction, idmap IDMap) error {
	if len(remoteTxs) == 0 {
		return nil // nothing to merge
	}
	idmap.RewriteTransactionRefs(remoteTxs)
	kept := make([]repository.Transaction, 0, len(remoteTxs))
	for _, re := range remoteTxs {
		// a malformed remote entity is skipped, never fatal, e.g. a
		// transfer whose endpoints collapsed onto one local account
		if err := re.Validate(); err != nil {
			s.log.Warn("skipping malformed remote transaction",
				zap.Int64("remoteId", re.ID), zap.Error(err))
			continue
		}
		kept = append(kept, re)
	}
	remoteTxs = kept
	if len(remoteTxs) == 0 {
		return nil
	}
	local, err := s.repos.Transactions.GetAll(ctx)
	if err != nil {
		return err
	}
	return mergeKind(local, remoteTxs, transactionKey,
		func(t repository.Transaction) time.Time { return t.UpdatedAt },
		func(re repository.Transaction) error {
			re.ID = 0
			return s.repos.Transactions.Create(ctx, &re)
		},
		func(le, re repository.Transaction) error {
			re.ID = le.ID
			re.CreatedAt = le.CreatedAt
			return s.repos.Transactions.Update(ctx, &re)
		})
}

func (s *Syncer) mergeRecurring(ctx context.Context, remoteRts []repository.RecurringTransaction, idmap IDMap) error {
	if len(remoteRts) == 0 {
		return nil
	}
	idmap.RewriteRecurringRefs(remoteRts)
	kept := make([]repository.RecurringTransaction, 0, len(remoteRts))
	for _, re := range remoteRts {
		if err := re.Validate(); err != nil {
			s.log.Warn("skipping malformed remote recurring transaction",
				zap.Int64("remoteId", re.ID), zap.Error(err))
			continue
		}
		kept = append(kept, re)
	}
	remoteRts = kept
	if len(remoteRts) == 0 {
		return nil
	}
	local, err := s.repos.Recurring.GetAll(ctx)
	if err != nil {
		return err
	}
	return mergeKind(local, remoteRts, recurringKey,
		func(rt repository.RecurringTransaction) time.Time { return rt.UpdatedAt },
		func(re repository.RecurringTransaction) error {
			re.ID = 0
			return s.repos.Recurring.Create(ctx, &re)
		},
		func(le, re repository.RecurringTransaction) error {
			re.ID = le.ID
			re.CreatedAt = le.CreatedAt
			// the materialization cursor never retreats, even when
			// the rest of the remote copy wins
			if re.NextExecution.Before(le.NextExecution) {
				re.NextExecution = le.NextExecution
			}
			return s.repos.Recurring.Update(ctx, &re)
		})
}

func (s *Syncer) mergeAdjustments(ctx context.Context, remoteAdjs []repository.BalanceAdjustment, idmap IDMap) error {
	if len(remoteAdjs) == 0 {
		return nil
	}
	idmap.RewriteAdjustmentRefs(remoteAdjs)
	local, err := s.repos.Adjustments.GetAll(ctx)
	if errors.Is(err, repository.ErrNotAvailable) {
		// schema predates adjustments; skip the kind this pass
		s.log.Warn("balance adjustments unavailable locally, skipping merge")
		return nil
	}
	if err != nil {
		return err
	}
	return mergeKind(local, remoteAdjs, adjustmentKey,
		func(a repository.BalanceAdjustment) time.Time { return a.UpdatedAt },
		func(re repository.BalanceAdjustment) error {
			re.ID = 0
			return s.repos.Adjustments.Set(ctx, &re)
		},
		func(le, re repository.BalanceAdjustment) error {
			// Set preserves the existing row's id and created_at
			return s.repos.Adjustments.Set(ctx, &re)
		})
}

func (s *Syncer) mergePreferences(ctx context.Context, rp *repository.Preferences, idmap IDMap) error {
	if rp == nil {
		return nil
	}
	p := *rp
	p.DefaultAccountID = idmap.resolvePtr(p.DefaultAccountID)
	lp, err := s.repos.Preferences.Get(ctx)
	if err != nil {
		return err
	}
	if lp != nil && !isMoreRecent(p.UpdatedAt, lp.UpdatedAt) {
		return nil
	}
	if lp != nil {
		p.CreatedAt = lp.CreatedAt
	}
	return s.repos.Preferences.Put(ctx, &p)
}

// adoptRemote replaces the local data with the remote snapshot: all rows are
// wiped, then the remote entities are reconciled into the empty store, which
// recreates everything with fresh local ids and rewritten references.
func (s *Syncer) adoptRemote(ctx context.Context, rs *remote.Snapshot) error {
	if s.Wipe == nil {
		return fmt.Errorf("wipe not configured")
	}
	if err := s.Wipe(ctx); err != nil {
		return err
	}
	return s.reconcile(ctx, rs)
}

func (s *Syncer) readLocal(ctx context.Context) (*remote.Snapshot, error) {
	accounts, err := s.repos.Accounts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.repos.Transactions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	rts, err := s.repos.Recurring.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	adjs, err := s.repos.Adjustments.GetAll(ctx)
	if errors.Is(err, repository.ErrNotAvailable) {
		adjs = nil
	} else if err != nil {
		return nil, err
	}
	prefs, err := s.repos.Preferences.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &remote.Snapshot{
		Accounts:              accounts,
		Transactions:          txs,
		RecurringTransactions: rts,
		BalanceAdjustments:    adjs,
		Preferences:           prefs,
	}, nil
}

func (s *Syncer) push(ctx context.Context, creds remote.Credentials, snap *remote.Snapshot, syncID, deviceID string) error {
	snap.SyncID = syncID
	snap.DeviceID = deviceID
	snap.LastSyncTime = database.Now()
	if err := s.remote.SaveSnapshot(ctx, creds, snap); err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	return nil
}

// finish persists the pass outcome in the sync state.
func (s *Syncer) finish(ctx context.Context, st repository.SyncState, syncID string) error {
	now := database.Now()
	st.SyncID = &syncID
	st.LastSyncTime = &now
	if err := s.repos.State.Save(ctx, st); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	s.report("done")
	s.log.Info("sync pass complete", zap.String("syncId", syncID))
	return nil
}

// syncID carries the remote snapshot's token forward, minting a new one for
// remotes that never had one.
func (s *Syncer) syncID(rs *remote.Snapshot) string {
	if rs != nil && rs.SyncID != "" {
		return rs.SyncID
	}
	return uuid.NewString()
}

func (s *Syncer) report(stage string) {
	if s.OnProgress != nil {
		s.OnProgress(Progress{Stage: stage, Initial: s.initial})
	}
	s.log.Debug("sync progress", zap.String("stage", stage))
}
