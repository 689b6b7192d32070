package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"DB_MAX_CONNS":          "8",
		"DB_MIN_CONNS":          "20",
		"DB_MAX_CONN_LIFETIME":  "1h",
		"DB_MAX_CONN_IDLE_TIME": "bogus",
	}
	cfg := DefaultPoolConfig().ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(8), cfg.MinConns, "min is clamped to max")
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnIdleTime, "invalid duration keeps default")
	assert.Equal(t, 30*time.Second, cfg.HealthCheckPeriod, "unset keeps default")
}

func TestPoolConfig_ApplyEnv_Empty(t *testing.T) {
	cfg := DefaultPoolConfig().ApplyEnv(func(string) string { return "" })
	assert.Equal(t, DefaultPoolConfig(), cfg)
}

func TestPoolConfig_ApplyEnv_ClampsMax(t *testing.T) {
	cfg := DefaultPoolConfig().ApplyEnv(func(k string) string {
		if k == "DB_MAX_CONNS" {
			return "0"
		}
		return ""
	})
	assert.Equal(t, int32(1), cfg.MaxConns)
}

func TestWithDefaultSSLMode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@host:5432/db", "postgres://u:p@host:5432/db?sslmode=require"},
		{"postgres://u:p@host:5432/db?sslmode=disable", "postgres://u:p@host:5432/db?sslmode=disable"},
		{"host=localhost user=u dbname=db", "host=localhost user=u dbname=db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withDefaultSSLMode(tt.in))
	}
}
