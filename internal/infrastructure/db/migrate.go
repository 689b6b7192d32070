package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the screen cache table.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists screen_cache (
			cache_key text primary key,
			params jsonb not null,
			coins jsonb not null default '[]'::jsonb,
			scanned int not null default 0,
			fetched_at timestamptz not null
		);`,
		`create index if not exists screen_cache_fetched_at_idx on screen_cache(fetched_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
