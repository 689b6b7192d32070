package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"volume-screener/internal/domain"
	"volume-screener/internal/infrastructure/metrics"
)

type ScreenerUsecase struct {
	source   domain.MarketDataSource
	cache    domain.ScreenCache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewScreenerUsecase wires a market source with an optional cache.
// A nil cache or a non-positive ttl disables caching.
func NewScreenerUsecase(source domain.MarketDataSource, cache domain.ScreenCache, cacheTTL time.Duration, m *metrics.Metrics) *ScreenerUsecase {
	return &ScreenerUsecase{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  m,
		now:      time.Now,
	}
}

// Screen returns the ranked coins for params. A fresh cached result is
// returned unless refresh is set.
func (uc *ScreenerUsecase) Screen(ctx context.Context, params domain.ScreenParams, refresh bool) (*domain.ScreenResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	key := params.Key()
	if uc.cachingEnabled() && !refresh {
		cached, ok, err := uc.cache.Get(ctx, key, uc.now().Add(-uc.cacheTTL))
		if err != nil {
			slog.WarnContext(ctx, "Screen cache lookup failed", slog.String("key", key), slog.Any("error", err))
		}
		uc.metrics.ObserveCache(ok)
		if ok {
			cached.Cached = true
			return cached, nil
		}
	}

	coins, scanned, err := uc.HighVolumeCoins(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &domain.ScreenResult{
		Params:    params,
		Coins:     coins,
		Scanned:   scanned,
		FetchedAt: uc.now(),
	}

	if uc.cachingEnabled() {
		if err := uc.cache.Save(ctx, key, result); err != nil {
			slog.WarnContext(ctx, "Screen cache store failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return result, nil
}

// HighVolumeCoins scans params.Pages pages in order and returns up to
// params.Limit coins whose 24h volume is at least their market cap,
// ranked by volume/market-cap ratio. It also returns the number of raw
// coins examined. Any page failure aborts the scan.
func (uc *ScreenerUsecase) HighVolumeCoins(ctx context.Context, params domain.ScreenParams) ([]domain.CoinRecord, int, error) {
	start := time.Now()
	slog.InfoContext(ctx, "Starting screening cycle",
		slog.String("currency", params.VsCurrency),
		slog.Int("pages", params.Pages),
		slog.Int("per_page", params.PerPage),
		slog.Float64("cap_limit", params.CapLimit),
	)

	var all []domain.MarketCoin
	for page := 1; page <= params.Pages; page++ {
		coins, err := uc.source.GetMarkets(ctx, domain.MarketsQuery{
			VsCurrency: params.VsCurrency,
			PerPage:    params.PerPage,
			Page:       page,
		})
		if err != nil {
			err = fmt.Errorf("fetch page %d: %w", page, err)
			uc.metrics.ObserveScreen(err, 0, 0, time.Since(start))
			slog.ErrorContext(ctx, "Screening cycle failed", slog.Any("error", err))
			return nil, 0, err
		}
		all = append(all, coins...)
	}

	ranked := FilterAndRank(all, params.CapLimit, params.Limit)

	uc.metrics.ObserveScreen(nil, len(all), len(ranked), time.Since(start))
	slog.InfoContext(ctx, "Cycle completed",
		slog.Duration("took", time.Since(start)),
		slog.Int("scanned", len(all)),
		slog.Int("matched", len(ranked)),
	)
	return ranked, len(all), nil
}

// FilterAndRank keeps coins with 0 < market cap < capLimit and
// volume >= market cap, sorts them by ratio descending and truncates to limit.
func FilterAndRank(coins []domain.MarketCoin, capLimit float64, limit int) []domain.CoinRecord {
	kept := make([]domain.CoinRecord, 0)
	for _, c := range coins {
		marketCap := c.MarketCapValue()
		volume := c.VolumeValue()
		if marketCap <= 0 || marketCap >= capLimit || volume < marketCap {
			continue
		}
		kept = append(kept, domain.CoinRecord{
			Name:      c.Name,
			Symbol:    strings.ToUpper(c.Symbol),
			MarketCap: marketCap,
			Volume24h: volume,
			Ratio:     volume / marketCap * 100,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Ratio > kept[j].Ratio
	})

	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func (uc *ScreenerUsecase) cachingEnabled() bool {
	return uc.cache != nil && uc.cacheTTL > 0
}
