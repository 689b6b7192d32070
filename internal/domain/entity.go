package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MarketCoin is a single row of the upstream markets listing.
// Numeric fields are pointers because the API returns null for unlisted values.
type MarketCoin struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	CurrentPrice *float64 `json:"current_price"`
	MarketCap    *float64 `json:"market_cap"`
	TotalVolume  *float64 `json:"total_volume"`
}

// MarketCapValue returns the market cap, treating null as zero.
func (c MarketCoin) MarketCapValue() float64 {
	if c.MarketCap == nil {
		return 0
	}
	return *c.MarketCap
}

// VolumeValue returns the 24h volume, treating null as zero.
func (c MarketCoin) VolumeValue() float64 {
	if c.TotalVolume == nil {
		return 0
	}
	return *c.TotalVolume
}

// CoinRecord represents a coin that passed the volume/market-cap screen.
type CoinRecord struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`    // Uppercase
	MarketCap float64 `json:"marketCap"` // 0 < MarketCap < cap limit
	Volume24h float64 `json:"volume24h"` // Volume24h >= MarketCap
	Ratio     float64 `json:"ratio"`     // Volume24h / MarketCap * 100
}

// ErrInvalidParams is returned when screen parameters are out of bounds.
var ErrInvalidParams = errors.New("invalid screen parameters")

// Bounds exposed by the filter controls.
const (
	MinCapLimit  = 1_000_000
	MaxCapLimit  = 1_000_000_000
	CapLimitStep = 1_000_000
	MinLimit     = 5
	MaxLimit     = 50
	MaxPerPage   = 250
)

// ScreenParams are the inputs of a single screen.
type ScreenParams struct {
	VsCurrency string  `json:"vsCurrency"`
	PerPage    int     `json:"perPage"`
	Pages      int     `json:"pages"`
	CapLimit   float64 `json:"capLimit"`
	Limit      int     `json:"limit"`
}

// DefaultScreenParams returns the parameters used when the UI sends nothing.
func DefaultScreenParams() ScreenParams {
	return ScreenParams{
		VsCurrency: "usd",
		PerPage:    250,
		Pages:      4,
		CapLimit:   100_000_000,
		Limit:      20,
	}
}

// Validate checks the scan shape. UI bounds are checked by ValidateControls.
func (p ScreenParams) Validate() error {
	if p.VsCurrency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidParams)
	}
	if p.PerPage < 1 || p.PerPage > MaxPerPage {
		return fmt.Errorf("%w: per_page must be between 1 and %d", ErrInvalidParams, MaxPerPage)
	}
	if p.Pages < 1 {
		return fmt.Errorf("%w: pages must be positive", ErrInvalidParams)
	}
	if p.CapLimit <= 0 {
		return fmt.Errorf("%w: cap limit must be positive", ErrInvalidParams)
	}
	if p.Limit < 1 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidParams)
	}
	return nil
}

// ValidateControls checks the values against the numeric input and slider bounds.
// CapLimitStep only drives the input's spinner; any in-range cap is accepted.
func (p ScreenParams) ValidateControls() error {
	if !(p.CapLimit >= MinCapLimit && p.CapLimit <= MaxCapLimit) {
		return fmt.Errorf("%w: max market cap must be between %d and %d", ErrInvalidParams, MinCapLimit, MaxCapLimit)
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return fmt.Errorf("%w: top N must be between %d and %d", ErrInvalidParams, MinLimit, MaxLimit)
	}
	return p.Validate()
}

// Key identifies a screen for caching.
func (p ScreenParams) Key() string {
	return fmt.Sprintf("%s:%d:%d:%s:%d", p.VsCurrency, p.PerPage, p.Pages,
		strconv.FormatFloat(p.CapLimit, 'f', -1, 64), p.Limit)
}

// ScreenResult is the output of one screen, possibly served from cache.
type ScreenResult struct {
	Params    ScreenParams `json:"params"`
	Coins     []CoinRecord `json:"coins"`
	Scanned   int          `json:"scanned"` // Raw coins examined across all pages
	FetchedAt time.Time    `json:"fetchedAt"`
	Cached    bool         `json:"cached"`
}
