package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volume-screener/internal/domain"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{1000, "$1,000"},
		{1500, "$1,500"},
		{1234567.4, "$1,234,567"},
		{99_999_999.6, "$100,000,000"},
		{2_000_000_000, "$2,000,000,000"},
		{-12345, "-$12,345"},
		{1500.5, "$1,500"},
		{2500.5, "$2,500"},
		{3500.5, "$3,500"},
		{1501.5, "$1,502"},
		{1500.5000001, "$1,501"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(tt.in), "FormatUSD(%v)", tt.in)
	}
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "150.00%", FormatRatio(150))
	assert.Equal(t, "100.00%", FormatRatio(100))
	assert.Equal(t, "333.33%", FormatRatio(1000.0/3.0))
	assert.Equal(t, "1234.57%", FormatRatio(1234.5678))
}

func TestFormatRatio_RoundsExactBinaryValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100.125, "100.12%"}, // exact tie, rounds to even
		{100.375, "100.38%"}, // exact tie, rounds to even
		{100.675, "100.67%"}, // stored just below the tie
		{150.005, "150.00%"}, // stored just below the tie
		{100.165, "100.17%"}, // stored just above the tie
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRatio(tt.in), "FormatRatio(%v)", tt.in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	assert.Equal(t, "2024-03-09 07:05:01", FormatTimestamp(ts))
}

func TestNewScreenResponse(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	res := &domain.ScreenResult{
		Params: domain.DefaultScreenParams(),
		Coins: []domain.CoinRecord{
			{Name: "Alpha", Symbol: "ALP", MarketCap: 1000, Volume24h: 1500, Ratio: 150},
			{Name: "Beta", Symbol: "BET", MarketCap: 2_500_000, Volume24h: 2_500_000, Ratio: 100},
		},
		Scanned:   1000,
		FetchedAt: now.Add(-time.Minute),
		Cached:    true,
	}

	resp := NewScreenResponse(res, now)
	require.Len(t, resp.Rows, 2)
	assert.False(t, resp.Empty)
	assert.Empty(t, resp.Warning)
	assert.True(t, resp.Cached)
	assert.Equal(t, 1000, resp.Scanned)
	assert.Equal(t, "2024-01-02 03:04:05", resp.LastUpdated)

	assert.Equal(t, Row{
		Rank: 1, Name: "Alpha", Symbol: "ALP",
		MarketCap: 1000, Volume24h: 1500, Ratio: 150,
		MarketCapFormatted: "$1,000", Volume24hFormatted: "$1,500", RatioFormatted: "150.00%",
	}, resp.Rows[0])
	assert.Equal(t, 2, resp.Rows[1].Rank)
	assert.Equal(t, "$2,500,000", resp.Rows[1].MarketCapFormatted)
}

func TestNewScreenResponse_Empty(t *testing.T) {
	resp := NewScreenResponse(&domain.ScreenResult{Params: domain.DefaultScreenParams()}, time.Now())
	assert.True(t, resp.Empty)
	assert.Equal(t, NoMatchesWarning, resp.Warning)
	assert.NotNil(t, resp.Rows)
	assert.Empty(t, resp.Rows)
}
