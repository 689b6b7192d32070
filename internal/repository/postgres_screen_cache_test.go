//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"volume-screener/internal/domain"
	"volume-screener/internal/infrastructure/db"
)

// setupTestPool starts a PostgreSQL container and applies the schema.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.NewPool(ctx, dsn, db.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	// Migrate is idempotent.
	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

func TestPostgresScreenCache(t *testing.T) {
	ctx := context.Background()
	cache := NewPostgresScreenCache(setupTestPool(t))

	params := domain.DefaultScreenParams()
	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	result := &domain.ScreenResult{
		Params:    params,
		Coins:     []domain.CoinRecord{{Name: "Alpha", Symbol: "ALP", MarketCap: 1000, Volume24h: 1500, Ratio: 150}},
		Scanned:   1000,
		FetchedAt: fetchedAt,
	}

	t.Run("miss before save", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, params.Key(), time.Time{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	require.NoError(t, cache.Save(ctx, params.Key(), result))

	t.Run("hit within ttl", func(t *testing.T) {
		got, ok, err := cache.Get(ctx, params.Key(), fetchedAt.Add(-time.Minute))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, params, got.Params)
		assert.Equal(t, result.Coins, got.Coins)
		assert.Equal(t, 1000, got.Scanned)
		assert.True(t, fetchedAt.Equal(got.FetchedAt))
		assert.False(t, got.Cached)
	})

	t.Run("stale entry misses", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, params.Key(), fetchedAt.Add(time.Second))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("save replaces previous result", func(t *testing.T) {
		newer := *result
		newer.Coins = nil
		newer.FetchedAt = fetchedAt.Add(time.Hour)
		require.NoError(t, cache.Save(ctx, params.Key(), &newer))

		got, ok, err := cache.Get(ctx, params.Key(), fetchedAt)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, got.Coins)
		assert.True(t, newer.FetchedAt.Equal(got.FetchedAt))
	})

	t.Run("purge", func(t *testing.T) {
		other := domain.DefaultScreenParams()
		other.Limit = 10
		old := &domain.ScreenResult{Params: other, FetchedAt: fetchedAt.Add(-48 * time.Hour)}
		require.NoError(t, cache.Save(ctx, other.Key(), old))

		n, err := cache.Purge(ctx, fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, ok, err := cache.Get(ctx, params.Key(), time.Time{})
		require.NoError(t, err)
		assert.True(t, ok, "recent entry survives purge")
	})
}
