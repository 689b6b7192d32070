package view

import (
	"time"

	"volume-screener/internal/domain"
)

// Row is one table line. Raw values are kept next to the display strings
// so API clients can sort or re-format.
type Row struct {
	Rank               int     `json:"rank"`
	Name               string  `json:"name"`
	Symbol             string  `json:"symbol"`
	MarketCap          float64 `json:"marketCap"`
	Volume24h          float64 `json:"volume24h"`
	Ratio              float64 `json:"ratio"`
	MarketCapFormatted string  `json:"marketCapFormatted"`
	Volume24hFormatted string  `json:"volume24hFormatted"`
	RatioFormatted     string  `json:"ratioFormatted"`
}

// ScreenResponse is the payload of /api/coins and of websocket replies.
type ScreenResponse struct {
	Params      domain.ScreenParams `json:"params"`
	Rows        []Row               `json:"rows"`
	Empty       bool                `json:"empty"`
	Warning     string              `json:"warning,omitempty"`
	Scanned     int                 `json:"scanned"`
	Cached      bool                `json:"cached"`
	FetchedAt   time.Time           `json:"fetchedAt"`
	LastUpdated string              `json:"lastUpdated"`
}

// NoMatchesWarning is shown instead of a table when nothing qualifies.
const NoMatchesWarning = "No coins found matching criteria."

// Rows formats coin records in their ranked order.
func Rows(coins []domain.CoinRecord) []Row {
	rows := make([]Row, 0, len(coins))
	for i, c := range coins {
		rows = append(rows, Row{
			Rank:               i + 1,
			Name:               c.Name,
			Symbol:             c.Symbol,
			MarketCap:          c.MarketCap,
			Volume24h:          c.Volume24h,
			Ratio:              c.Ratio,
			MarketCapFormatted: FormatUSD(c.MarketCap),
			Volume24hFormatted: FormatUSD(c.Volume24h),
			RatioFormatted:     FormatRatio(c.Ratio),
		})
	}
	return rows
}

// NewScreenResponse builds the response for res. now is the render time
// shown in the footer.
func NewScreenResponse(res *domain.ScreenResult, now time.Time) ScreenResponse {
	resp := ScreenResponse{
		Params:      res.Params,
		Rows:        Rows(res.Coins),
		Scanned:     res.Scanned,
		Cached:      res.Cached,
		FetchedAt:   res.FetchedAt,
		LastUpdated: FormatTimestamp(now),
	}
	if len(resp.Rows) == 0 {
		resp.Empty = true
		resp.Warning = NoMatchesWarning
	}
	return resp
}
