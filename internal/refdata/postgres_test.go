package refdata

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formulary/internal/store"
	"github.com/mesh-intelligence/formulary/pkg/types"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("FORMULARY_TEST_DSN")
	if dsn == "" {
		t.Skip("FORMULARY_TEST_DSN not set")
	}
	ctx := context.Background()
	cfg := types.Config{Backend: types.BackendPostgres, DSN: dsn}

	open := func() *Repository {
		s, err := store.Open(ctx, cfg, store.ReferenceSchema)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return New(s)
	}

	r := open()
	require.NoError(t, r.AddCategory(ctx, "Postgres Vaccines"))
	require.NoError(t, r.AddGroup(ctx, "Postgres Vaccines", "Routine"))
	require.NoError(t, r.AddItem(ctx, "Postgres Vaccines", "Routine", "MMR"))
	require.NoError(t, r.AddItem(ctx, "Postgres Vaccines", "Routine", "MMR"))
	require.NoError(t, r.CommitPending(ctx))
	want, err := r.Snapshot(ctx)
	require.NoError(t, err)

	got, err := open().Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	item, err := r.FindItem(ctx, "Postgres Vaccines", "Routine", "MMR")
	require.NoError(t, err)
	r.RemoveItem(item)
	require.NoError(t, r.CommitPending(ctx))

	data, err := open().MedicationData(ctx)
	require.NoError(t, err)
	require.Len(t, data["Postgres Vaccines"], 1)
	assert.Equal(t, []string{"MMR"}, itemTexts(data["Postgres Vaccines"][0].Items))
}
