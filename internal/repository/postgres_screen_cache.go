package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"volume-screener/internal/domain"
)

// PostgresScreenCache keeps the latest result per parameter key in Postgres.
// Rows are upserted, so at most one result per key is ever retained.
type PostgresScreenCache struct {
	pool *pgxpool.Pool
}

func NewPostgresScreenCache(pool *pgxpool.Pool) *PostgresScreenCache {
	return &PostgresScreenCache{pool: pool}
}

func (r *PostgresScreenCache) Get(ctx context.Context, key string, notBefore time.Time) (*domain.ScreenResult, bool, error) {
	var (
		paramsJSON []byte
		coinsJSON  []byte
		scanned    int
		fetchedAt  time.Time
	)
	err := r.pool.QueryRow(ctx, `
		select params, coins, scanned, fetched_at
		from screen_cache
		where cache_key = $1 and fetched_at >= $2
	`, key, notBefore).Scan(&paramsJSON, &coinsJSON, &scanned, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select screen_cache: %w", err)
	}

	res := &domain.ScreenResult{Scanned: scanned, FetchedAt: fetchedAt}
	if err := json.Unmarshal(paramsJSON, &res.Params); err != nil {
		return nil, false, fmt.Errorf("decode params: %w", err)
	}
	if err := json.Unmarshal(coinsJSON, &res.Coins); err != nil {
		return nil, false, fmt.Errorf("decode coins: %w", err)
	}
	return res, true, nil
}

func (r *PostgresScreenCache) Save(ctx context.Context, key string, result *domain.ScreenResult) error {
	if result == nil {
		return errors.New("nil result")
	}

	paramsJSON, err := json.Marshal(result.Params)
	if err != nil {
		return err
	}
	coins := result.Coins
	if coins == nil {
		coins = []domain.CoinRecord{}
	}
	coinsJSON, err := json.Marshal(coins)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		insert into screen_cache(cache_key, params, coins, scanned, fetched_at)
		values ($1,$2,$3,$4,$5)
		on conflict (cache_key) do update set
			params = excluded.params,
			coins = excluded.coins,
			scanned = excluded.scanned,
			fetched_at = excluded.fetched_at
	`, key, paramsJSON, coinsJSON, result.Scanned, result.FetchedAt)
	if err != nil {
		return fmt.Errorf("upsert screen_cache: %w", err)
	}
	return nil
}

// Purge deletes entries fetched before cutoff.
func (r *PostgresScreenCache) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `delete from screen_cache where fetched_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
