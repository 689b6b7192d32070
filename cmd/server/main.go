package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"volume-screener/internal/config"
	httpdelivery "volume-screener/internal/delivery/http"
	"volume-screener/internal/delivery/websocket"
	"volume-screener/internal/domain"
	"volume-screener/internal/infrastructure/coingecko"
	"volume-screener/internal/infrastructure/db"
	"volume-screener/internal/infrastructure/metrics"
	"volume-screener/internal/repository"
	"volume-screener/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Infrastructure
	m := metrics.New(cfg.Metrics.Namespace)
	client := coingecko.NewClient(cfg.CoinGecko.BaseURL,
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout),
		coingecko.WithMetrics(m),
	)

	// 3. Initialize Repository
	cache, closeCache, err := newScreenCache(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize screen cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeCache()

	// 4. Initialize Usecase
	uc := usecase.NewScreenerUsecase(client, cache, cfg.Cache.TTL, m)

	// 5. Initialize Delivery
	defaults := cfg.ScreenParams()
	screenerHandler := httpdelivery.NewScreenerHandler(uc, defaults)
	wsHandler := websocket.NewHandler(uc, defaults)

	mux := http.NewServeMux()
	mux.HandleFunc("/", screenerHandler.Page)
	mux.HandleFunc("/api/coins", screenerHandler.Coins)
	mux.HandleFunc("/healthz", screenerHandler.Health)
	mux.HandleFunc("/ws", wsHandler.Handle)
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server executing", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", slog.Any("error", err))
	}
}

// newScreenCache returns the Postgres cache when DATABASE_URL is set and the
// in-memory cache otherwise.
func newScreenCache(ctx context.Context, cfg *config.Config) (domain.ScreenCache, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("Using in-memory screen cache", slog.Duration("ttl", cfg.Cache.TTL))
		return repository.NewInMemoryScreenCache(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.Database.URL, cfg.Database.Pool)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cache := repository.NewPostgresScreenCache(pool)
	purged, err := cache.Purge(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		slog.Warn("Screen cache purge failed", slog.Any("error", err))
	} else if purged > 0 {
		slog.Info("Purged stale screen cache rows", slog.Int64("rows", purged))
	}

	slog.Info("Using Postgres screen cache", slog.Duration("ttl", cfg.Cache.TTL))
	return cache, pool.Close, nil
}
