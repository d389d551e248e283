package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncStateStableDeviceID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSyncStateRepo(db)

	first, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first.DeviceID)

	second, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, first.DeviceID, second.DeviceID, "device id is minted once and persisted")
}

func TestSyncStateForceFlagsExclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSyncStateRepo(db)

	require.NoError(t, repo.RequestForceLocal(ctx))
	st, err := repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, st.ForceLocal)
	require.False(t, st.ForceRemote)

	require.NoError(t, repo.RequestForceRemote(ctx))
	st, err = repo.Get(ctx)
	require.NoError(t, err)
	require.False(t, st.ForceLocal)
	require.True(t, st.ForceRemote)

	// consuming a flag is a plain save with the flag cleared
	st.ForceRemote = false
	require.NoError(t, repo.Save(ctx, st))
	st, err = repo.Get(ctx)
	require.NoError(t, err)
	require.False(t, st.ForceLocal)
	require.False(t, st.ForceRemote)
}
