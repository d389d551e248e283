package syncer

import "github.com/finbook/finbook/internal/database/repository"

// IDMap translates remote account ids to local ones for a single sync pass.
// It is populated while accounts resolve and discarded with the pass.
type IDMap map[int64]int64

// Resolve maps a remote account id to its local id. Ids with no entry pass
// through unchanged: they belong to accounts that only exist locally, or
// whose numbering happens to coincide across devices.
func (m IDMap) Resolve(id int64) int64 {
	if local, ok := m[id]; ok {
		return local
	}
	return id
}

func (m IDMap) resolvePtr(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := m.Resolve(*id)
	return &v
}

// RewriteTransactionRefs rewrites account references on remote transactions.
// Must run strictly after every account of the pass has been resolved.
func (m IDMap) RewriteTransactionRefs(txs []repository.Transaction) {
	for i := range txs {
		txs[i].AccountID = m.Resolve(txs[i].AccountID)
		txs[i].ToAccountID = m.resolvePtr(txs[i].ToAccountID)
	}
}

// RewriteRecurringRefs rewrites account references on remote recurring
// transactions.
func (m IDMap) RewriteRecurringRefs(rts []repository.RecurringTransaction) {
	for i := range rts {
		rts[i].AccountID = m.Resolve(rts[i].AccountID)
		rts[i].ToAccountID = m.resolvePtr(rts[i].ToAccountID)
	}
}

// RewriteAdjustmentRefs rewrites account references on remote balance
// adjustments.
func (m IDMap) RewriteAdjustmentRefs(adjs []repository.BalanceAdjustment) {
	for i := range adjs {
		adjs[i].AccountID = m.Resolve(adjs[i].AccountID)
	}
}
