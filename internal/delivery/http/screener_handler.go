package http

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"volume-screener/internal/delivery/view"
	"volume-screener/internal/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Screener runs a screen for the given parameters.
type Screener interface {
	Screen(ctx context.Context, params domain.ScreenParams, refresh bool) (*domain.ScreenResult, error)
}

// ScreenerHandler serves the screener page and its JSON API.
type ScreenerHandler struct {
	screener Screener
	defaults domain.ScreenParams
	now      func() time.Time
}

// NewScreenerHandler creates a handler. defaults fill in anything the request omits.
func NewScreenerHandler(screener Screener, defaults domain.ScreenParams) *ScreenerHandler {
	return &ScreenerHandler{
		screener: screener,
		defaults: defaults,
		now:      time.Now,
	}
}

type pageData struct {
	Params    domain.ScreenParams
	CapValue  string
	Response  view.ScreenResponse
	FetchedAt string
	MinCap    int
	MaxCap    int
	CapStep   int
	MinLimit  int
	MaxLimit  int
}

// Page handles GET /?cap=&top=&refresh=
func (h *ScreenerHandler) Page(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	params, refresh, err := ParseParams(r, h.defaults)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.screener.Screen(r.Context(), params, refresh)
	if err != nil {
		slog.ErrorContext(r.Context(), "Screen failed", slog.Any("error", err))
		http.Error(w, "Failed to fetch market data: "+err.Error(), http.StatusBadGateway)
		return
	}

	data := pageData{
		Params:    params,
		CapValue:  strconv.FormatFloat(params.CapLimit, 'f', -1, 64),
		Response:  view.NewScreenResponse(res, h.now()),
		FetchedAt: view.FormatTimestamp(res.FetchedAt),
		MinCap:    domain.MinCapLimit,
		MaxCap:    domain.MaxCapLimit,
		CapStep:   domain.CapLimitStep,
		MinLimit:  domain.MinLimit,
		MaxLimit:  domain.MaxLimit,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.ErrorContext(r.Context(), "Render page failed", slog.Any("error", err))
	}
}

// Coins handles GET /api/coins?cap=&top=&refresh=
func (h *ScreenerHandler) Coins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, refresh, err := ParseParams(r, h.defaults)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.screener.Screen(r.Context(), params, refresh)
	if err != nil {
		slog.ErrorContext(r.Context(), "Screen failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, view.NewScreenResponse(res, h.now()))
}

// Health handles GET /healthz
func (h *ScreenerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ParseParams reads cap, top and refresh from the query string on top of defaults
// and checks them against the control bounds.
func ParseParams(r *http.Request, defaults domain.ScreenParams) (domain.ScreenParams, bool, error) {
	q := r.URL.Query()
	params := defaults

	if v := q.Get("cap"); v != "" {
		capLimit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, false, fmt.Errorf("%w: cap must be a number", domain.ErrInvalidParams)
		}
		params.CapLimit = capLimit
	}
	if v := q.Get("top"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return params, false, fmt.Errorf("%w: top must be an integer", domain.ErrInvalidParams)
		}
		params.Limit = limit
	}

	refresh := false
	if v := q.Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, false, fmt.Errorf("%w: refresh must be a boolean", domain.ErrInvalidParams)
		}
		refresh = b
	}

	if err := params.ValidateControls(); err != nil {
		return params, false, err
	}
	return params, refresh, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Write response failed", slog.Any("error", err))
	}
}
