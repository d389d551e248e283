package syncer

import (
	"fmt"
	"time"

	"github.com/finbook/finbook/internal/database/repository"
)

// isMoreRecent is the single recency rule for every entity kind: a remote
// copy wins only with a strictly greater updatedAt. Ties favor local, which
// avoids overwrite churn when clocks are coarse.
func isMoreRecent(remote, local time.Time) bool {
	return remote.After(local)
}

// Natural keys match a local entity to its remote counterpart when ids
// differ across devices. Account references inside the keys must already be
// remapped to local ids.

func accountKey(a repository.Account) string {
	return repository.NameKey(a.Name)
}

func transactionKey(t repository.Transaction) string {
	return fmt.Sprintf("%d|%s|%s|%s", t.AccountID, t.Amount.String(), t.Description, t.Date.Format("2006-01-02"))
}

func recurringKey(rt repository.RecurringTransaction) string {
	return fmt.Sprintf("%d|%s|%s|%s", rt.AccountID, rt.Amount.String(), rt.Description, rt.Frequency)
}

func adjustmentKey(a repository.BalanceAdjustment) string {
	return fmt.Sprintf("%d|%s", a.AccountID, a.YearMonth)
}

// mergeKind folds one remote entity slice into the local set. For each
// remote entity: no local entity under the same natural key means it is new
// (onNew); a match is updated in place only if the remote copy is more
// recent (onWin receives the local match and the remote values). Local
// entities absent remotely are never touched: merge does not delete.
//
// The fold is one pass, commutative per key, and idempotent: replaying the
// same remote set changes nothing because replayed timestamps never compare
// strictly greater.
func mergeKind[E any](
	local, remote []E,
	key func(E) string,
	updatedAt func(E) time.Time,
	onNew func(E) error,
	onWin func(localMatch, remote E) error,
) error {
	index := make(map[string]E, len(local))
	for _, e := range local {
		index[key(e)] = e
	}
	for _, re := range remote {
		le, ok := index[key(re)]
		if !ok {
			if err := onNew(re); err != nil {
				return err
			}
			continue
		}
		if isMoreRecent(updatedAt(re), updatedAt(le)) {
			if err := onWin(le, re); err != nil {
				return err
			}
		}
	}
	return nil
}
