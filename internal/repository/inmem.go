package repository

import (
	"context"
	"sync"
	"time"

	"volume-screener/internal/domain"
)

type InMemoryScreenCache struct {
	results map[string]domain.ScreenResult
	mu      sync.RWMutex
}

func NewInMemoryScreenCache() *InMemoryScreenCache {
	return &InMemoryScreenCache{
		results: make(map[string]domain.ScreenResult),
	}
}

func (r *InMemoryScreenCache) Get(_ context.Context, key string, notBefore time.Time) (*domain.ScreenResult, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.results[key]
	if !ok || res.FetchedAt.Before(notBefore) {
		return nil, false, nil
	}
	// Copy so callers can't mutate the stored entry.
	res.Coins = append([]domain.CoinRecord(nil), res.Coins...)
	return &res, true, nil
}

func (r *InMemoryScreenCache) Save(_ context.Context, key string, result *domain.ScreenResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *result
	stored.Cached = false
	stored.Coins = append([]domain.CoinRecord(nil), result.Coins...)
	r.results[key] = stored

	// Evict entries more than a day older than this one.
	cutoff := stored.FetchedAt.Add(-24 * time.Hour)
	for k, v := range r.results {
		if v.FetchedAt.Before(cutoff) {
			delete(r.results, k)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (r *InMemoryScreenCache) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}
