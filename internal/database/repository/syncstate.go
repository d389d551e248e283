package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/finbook/finbook/internal/database"
)

// SyncStateRepo handles the singleton sync-state row.
type SyncStateRepo struct {
	db *sql.DB
}

func NewSyncStateRepo(db *sql.DB) *SyncStateRepo { return &SyncStateRepo{db: db} }

// Get returns the sync state, minting and persisting a stable device id on
// first use.
func (r *SyncStateRepo) Get(ctx context.Context) (SyncState, error) {
	if ok, err := database.HasTable(r.db, "sync_state"); err != nil {
		return SyncState{}, err
	} else if !ok {
		return SyncState{}, ErrNotAvailable
	}

	row := r.db.QueryRowContext(ctx, `SELECT device_id, sync_id, last_sync_time, force_local, force_remote FROM sync_state WHERE id=1`)
	var st SyncState
	err := row.Scan(&st.DeviceID, &st.SyncID, &st.LastSyncTime, &st.ForceLocal, &st.ForceRemote)
	if err == sql.ErrNoRows {
		st = SyncState{DeviceID: uuid.NewString()}
		if err := r.Save(ctx, st); err != nil {
			return SyncState{}, err
		}
		return st, nil
	}
	if err != nil {
		return SyncState{}, err
	}
	return st, nil
}

// Save writes the sync state verbatim, including flag clears.
func (r *SyncStateRepo) Save(ctx context.Context, st SyncState) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sync_state(id, device_id, sync_id, last_sync_time, force_local, force_remote)
	VALUES (1, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 device_id=excluded.device_id,
	 sync_id=excluded.sync_id,
	 last_sync_time=excluded.last_sync_time,
	 force_local=excluded.force_local,
	 force_remote=excluded.force_remote;
	`, st.DeviceID, st.SyncID, st.LastSyncTime, st.ForceLocal, st.ForceRemote)
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}

// RequestForceLocal arms the one-shot switch making the next sync pass push
// local state verbatim.
func (r *SyncStateRepo) RequestForceLocal(ctx context.Context) error {
	st, err := r.Get(ctx)
	if err != nil {
		return err
	}
	st.ForceLocal = true
	st.ForceRemote = false
	return r.Save(ctx, st)
}

// RequestForceRemote arms the one-shot switch making the next sync pass
// adopt remote state verbatim.
func (r *SyncStateRepo) RequestForceRemote(ctx context.Context) error {
	st, err := r.Get(ctx)
	if err != nil {
		return err
	}
	st.ForceRemote = true
	st.ForceLocal = false
	return r.Save(ctx, st)
}
