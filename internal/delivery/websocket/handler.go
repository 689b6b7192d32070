package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"volume-screener/internal/delivery/view"
	"volume-screener/internal/domain"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

const (
	writeWait  = 10 * time.Second
	readLimit  = 4096
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Screener runs a screen for the given parameters.
type Screener interface {
	Screen(ctx context.Context, params domain.ScreenParams, refresh bool) (*domain.ScreenResult, error)
}

// RefreshRequest is sent by the client to ask for a screen.
// Zero values fall back to the server defaults.
type RefreshRequest struct {
	CapLimit float64 `json:"capLimit"`
	Limit    int     `json:"limit"`
	Refresh  bool    `json:"refresh"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	screener   Screener
	defaults   domain.ScreenParams
	now        func() time.Time
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewHandler(screener Screener, defaults domain.ScreenParams) *Handler {
	return &Handler{
		screener:   screener,
		defaults:   defaults,
		now:        time.Now,
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

// Handle answers each RefreshRequest with one screen response. The server
// never pushes on its own.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("New client connected", slog.String("remote", r.RemoteAddr))

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	requests := make(chan RefreshRequest)
	go func() {
		defer cancel()
		defer close(requests)
		for {
			var req RefreshRequest
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("Websocket read error", slog.Any("error", err))
				}
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
			// The send blocks while a screen runs.
			conn.SetReadDeadline(time.Now().Add(h.pongWait))
		}
	}()

	// Screens run one at a time off the ping loop, so replies keep request order.
	responses := make(chan any)
	go func() {
		for req := range requests {
			resp := h.respond(ctx, req)
			select {
			case responses <- resp:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case resp := <-responses:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(resp); err != nil {
				slog.Warn("Websocket write error", slog.Any("error", err))
				return
			}
		}
	}
}

func (h *Handler) respond(ctx context.Context, req RefreshRequest) any {
	params := h.defaults
	if req.CapLimit != 0 {
		params.CapLimit = req.CapLimit
	}
	if req.Limit != 0 {
		params.Limit = req.Limit
	}
	if err := params.ValidateControls(); err != nil {
		return errorResponse{Error: err.Error()}
	}

	res, err := h.screener.Screen(ctx, params, req.Refresh)
	if err != nil {
		slog.ErrorContext(ctx, "Screen failed", slog.Any("error", err))
		return errorResponse{Error: err.Error()}
	}
	return view.NewScreenResponse(res, h.now())
}
