package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPreferencesSingleton(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewPreferencesRepo(db)

	none, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, none)

	p := Preferences{Currency: "EUR", Theme: "dark", DateFormat: "02/01/2006"}
	require.NoError(t, repo.Put(ctx, &p))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(1), got.ID)
	created := got.CreatedAt

	got.Theme = "light"
	got.UpdatedAt = time.Time{}
	require.NoError(t, repo.Put(ctx, got))

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), again.ID, "always one row")
	require.Equal(t, "light", again.Theme)
	require.True(t, again.CreatedAt.Equal(created))
}
