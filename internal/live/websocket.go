package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/wizard-trials/internal/identity"
	"github.com/ashureev/wizard-trials/internal/lobby"
)

// EventSync carries a full state snapshot. It is sent on connect, on request and
// whenever replay cannot fill a gap.
const EventSync = "sync"

// WebSocketHandler streams a tab's game events over WebSocket.
type WebSocketHandler struct {
	lobby         *lobby.Lobby
	hub           *Hub
	allowedOrigin string
	isDev         bool
	writeTimeout  time.Duration
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(lb *lobby.Lobby, hub *Hub, allowedOrigin string, isDev bool, writeTimeout time.Duration) *WebSocketHandler {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &WebSocketHandler{
		lobby:         lb,
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		writeTimeout:  writeTimeout,
	}
}

// wsMessage is a client to server message.
type wsMessage struct {
	Type string `json:"type"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := identity.PlayerIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	if playerID == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	after, _ := strconv.ParseUint(r.URL.Query().Get("after"), 10, 64)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "player_id", playerID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "player_id", playerID)
		}
	}()

	key := lobby.Key{PlayerID: playerID, TabID: tabID}
	// Make sure the game exists so its events reach the hub.
	h.lobby.Game(key, identity.PlayerNameFromContext(r.Context()))

	sub, backlog, complete := h.hub.Subscribe(key, after)
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("Live stream connected", "player_id", playerID, "tab_id", tabID, "after", after, "replayed", len(backlog))

	if after == 0 || !complete {
		if err := h.sendSnapshot(ctx, ws, key); err != nil {
			return
		}
	} else {
		for _, env := range backlog {
			if err := h.writeJSON(ctx, ws, env); err != nil {
				return
			}
		}
	}

	go h.inputLoop(ctx, cancel, ws, key)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Live stream disconnected", "player_id", playerID, "tab_id", tabID)
			return
		case env, ok := <-sub.Events():
			if !ok {
				slog.Info("Live stream closed by hub", "player_id", playerID, "tab_id", tabID)
				return
			}
			if err := h.writeJSON(ctx, ws, env); err != nil {
				slog.Debug("Live stream write failed", "error", err, "player_id", playerID)
				return
			}
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) inputLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn, key lobby.Key) {
	defer cancel()
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "player_id", key.PlayerID)
			} else if ctx.Err() == nil {
				slog.Warn("WebSocket read error", "error", err, "player_id", key.PlayerID)
			}
			return
		}

		h.lobby.Touch(key)

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("Ignoring malformed live message", "player_id", key.PlayerID)
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.writeJSON(ctx, ws, map[string]string{"type": "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
				return
			}
		case "sync":
			if err := h.sendSnapshot(ctx, ws, key); err != nil {
				return
			}
		}
	}
}

// sendSnapshot writes the current state tagged with the last published seq.
func (h *WebSocketHandler) sendSnapshot(ctx context.Context, ws *websocket.Conn, key lobby.Key) error {
	ctrl, ok := h.lobby.Lookup(key)
	if !ok {
		return h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": "game ended"})
	}
	seq := h.hub.Seq(key)
	return h.writeJSON(ctx, ws, Envelope{Type: EventSync, Seq: seq, Payload: ctrl.State()})
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}
