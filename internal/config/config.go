package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"volume-screener/internal/domain"
	"volume-screener/internal/infrastructure/db"
)

// Config holds all settings for the screener service.
// Load reads .env, then the optional YAML file, then environment overrides.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	CoinGecko struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"` // 0 = no timeout
	} `yaml:"coingecko"`

	Screen struct {
		VsCurrency string  `yaml:"vs_currency"`
		PerPage    int     `yaml:"per_page"`
		Pages      int     `yaml:"pages"`
		CapLimit   float64 `yaml:"cap_limit"`
		Limit      int     `yaml:"limit"`
	} `yaml:"screen"`

	Cache struct {
		TTL time.Duration `yaml:"ttl"` // 0 disables caching
	} `yaml:"cache"`

	Database struct {
		URL  string        `yaml:"url"` // empty = in-memory cache
		Pool db.PoolConfig `yaml:"pool"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" or "json"
	} `yaml:"logging"`

	Metrics struct {
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	cfg.CoinGecko.Timeout = 30 * time.Second

	p := domain.DefaultScreenParams()
	cfg.Screen.VsCurrency = p.VsCurrency
	cfg.Screen.PerPage = p.PerPage
	cfg.Screen.Pages = p.Pages
	cfg.Screen.CapLimit = p.CapLimit
	cfg.Screen.Limit = p.Limit

	cfg.Cache.TTL = time.Minute
	cfg.Database.Pool = db.DefaultPoolConfig()
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Metrics.Namespace = "volume_screener"
	return &cfg
}

// Load builds the configuration. A missing .env is not an error; a missing
// file named by CONFIG_PATH is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides values from the environment. Environment wins over the file.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("LISTEN_ADDR", &c.Server.Addr)
	if port := strings.TrimSpace(getenv("PORT")); port != "" && getenv("LISTEN_ADDR") == "" {
		c.Server.Addr = ":" + port
	}
	duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("COINGECKO_BASE_URL", &c.CoinGecko.BaseURL)
	str("COINGECKO_API_KEY", &c.CoinGecko.APIKey)
	duration("COINGECKO_TIMEOUT", &c.CoinGecko.Timeout)

	str("SCREEN_VS_CURRENCY", &c.Screen.VsCurrency)
	integer("SCREEN_PER_PAGE", &c.Screen.PerPage)
	integer("SCREEN_PAGES", &c.Screen.Pages)
	float("SCREEN_CAP_LIMIT", &c.Screen.CapLimit)
	integer("SCREEN_LIMIT", &c.Screen.Limit)

	duration("CACHE_TTL", &c.Cache.TTL)

	str("DATABASE_URL", &c.Database.URL)
	c.Database.Pool = c.Database.Pool.ApplyEnv(getenv)

	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)

	return errors.Join(errs...)
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server address is required")
	}
	if !strings.HasPrefix(c.CoinGecko.BaseURL, "http://") && !strings.HasPrefix(c.CoinGecko.BaseURL, "https://") {
		return fmt.Errorf("invalid CoinGecko base URL: %s", c.CoinGecko.BaseURL)
	}
	if c.CoinGecko.Timeout < 0 {
		return errors.New("coingecko timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if err := c.ScreenParams().ValidateControls(); err != nil {
		return fmt.Errorf("screen defaults: %w", err)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	return nil
}

// ScreenParams returns the default screen parameters.
func (c *Config) ScreenParams() domain.ScreenParams {
	return domain.ScreenParams{
		VsCurrency: strings.ToLower(c.Screen.VsCurrency),
		PerPage:    c.Screen.PerPage,
		Pages:      c.Screen.Pages,
		CapLimit:   c.Screen.CapLimit,
		Limit:      c.Screen.Limit,
	}
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
	return level, nil
}

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
