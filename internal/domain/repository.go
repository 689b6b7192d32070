package domain

import (
	"context"
	"time"
)

// MarketsQuery selects one page of the markets listing.
type MarketsQuery struct {
	VsCurrency string
	PerPage    int
	Page       int
}

// MarketDataSource returns one page of coins ordered by market cap descending.
type MarketDataSource interface {
	GetMarkets(ctx context.Context, q MarketsQuery) ([]MarketCoin, error)
}

// ScreenCache holds recent screen results keyed by ScreenParams.Key.
// Implementations: in-memory (default) and Postgres.
type ScreenCache interface {
	// Get returns the result stored under key if it was stored after notBefore.
	Get(ctx context.Context, key string, notBefore time.Time) (*ScreenResult, bool, error)
	Save(ctx context.Context, key string, result *ScreenResult) error
}
