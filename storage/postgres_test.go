package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"fairprice/stats"
	"fairprice/utils"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fairprice"),
		postgres.WithUsername("fairprice"),
		postgres.WithPassword("fairprice"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresStoreWriteLoad(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	ps, err := NewPostgresStore(ctx, dsn, &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 200 * time.Millisecond})
	require.NoError(t, err)
	defer ps.Close()

	require.NoError(t, ps.Write(ctx, sampleSnapshot()))

	snap, err := ps.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mombasa", "Nairobi"}, snap.Global.ValidStates)
	assert.InDelta(t, 2.4, snap.Global.BedroomMean, 1e-12)
	require.Len(t, snap.Localities, 3)
	assert.Equal(t, 0.05, snap.LocationDensity["Nyali"])
	_, hasRunda := snap.LocationDensity["Runda"]
	assert.False(t, hasRunda)

	store, err := stats.New(snap)
	require.NoError(t, err)
	loc, err := store.LookupLocality("Nairobi", "Westlands")
	require.NoError(t, err)
	assert.Equal(t, 60000.0, loc.Median)

	// A second write replaces, it does not append.
	require.NoError(t, ps.Write(ctx, sampleSnapshot()))
	snap, err = ps.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Localities, 3)
}

func TestPostgresStoreLoadEmpty(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	ps, err := NewPostgresStore(ctx, dsn, nil)
	require.NoError(t, err)
	defer ps.Close()

	require.NoError(t, ps.Clear(ctx))
	_, err = ps.Load(ctx)
	assert.Error(t, err)
}

func TestPostgresStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPostgresStore(ctx, "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1",
		&utils.RetryConfig{MaxAttempts: 2, BaseDelay: 10 * time.Millisecond})
	assert.Error(t, err)
}
