package db

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int32         `yaml:"max_conns"`
	MinConns          int32         `yaml:"min_conns"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period"`
}

// The cache does one query per screen, so the pool stays small.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          4,
		MinConns:          0,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// ApplyEnv overrides cfg from DB_* variables read through getenv.
// Unparseable values are ignored.
func (cfg PoolConfig) ApplyEnv(getenv func(string) string) PoolConfig {
	conns := map[string]*int32{
		"DB_MAX_CONNS": &cfg.MaxConns,
		"DB_MIN_CONNS": &cfg.MinConns,
	}
	for key, dst := range conns {
		if n, err := strconv.ParseInt(strings.TrimSpace(getenv(key)), 10, 32); err == nil {
			*dst = int32(n)
		}
	}

	durations := map[string]*time.Duration{
		"DB_MAX_CONN_LIFETIME":  &cfg.MaxConnLifetime,
		"DB_MAX_CONN_IDLE_TIME": &cfg.MaxConnIdleTime,
		"DB_HEALTHCHECK_PERIOD": &cfg.HealthCheckPeriod,
	}
	for key, dst := range durations {
		if d, err := time.ParseDuration(strings.TrimSpace(getenv(key))); err == nil {
			*dst = d
		}
	}
	return cfg.normalize()
}

func (cfg PoolConfig) normalize() PoolConfig {
	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.MinConns < 0 {
		cfg.MinConns = 0
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	return cfg
}

// withDefaultSSLMode adds sslmode=require to URL-style DSNs that don't set one.
func withDefaultSSLMode(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.Scheme == "" {
		// Keyword/value DSN or garbage; pgx will report it.
		return dbURL
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return strings.TrimSpace(u.String())
}

func NewPool(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	databaseURL = withDefaultSSLMode(databaseURL)

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg = cfg.normalize()
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
