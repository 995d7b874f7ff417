package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/wizard-trials/internal/domain"
	"github.com/ashureev/wizard-trials/internal/identity"
)

const (
	maxRunsLimit    = 100
	recentRunsLimit = 10
)

// PlayerHandler serves player info and the hall of fame.
type PlayerHandler struct {
	*Handler
	hallOfFameLimit int
}

// NewPlayerHandler creates a new player handler. hallOfFameLimit is the page size
// used when a request gives none.
func NewPlayerHandler(base *Handler, hallOfFameLimit int) *PlayerHandler {
	if hallOfFameLimit <= 0 {
		hallOfFameLimit = 20
	}
	return &PlayerHandler{Handler: base, hallOfFameLimit: hallOfFameLimit}
}

// RegisterRoutes registers player routes.
func (h *PlayerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/me", h.GetMe)
	r.Get("/api/runs", h.TopRuns)
}

// GetMe returns the current player and their recent runs.
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	playerID := identity.PlayerIDFromContext(r.Context())
	if playerID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	player, err := h.repo.GetPlayer(r.Context(), playerID)
	if err != nil {
		slog.Error("Failed to load player", "error", err, "player_id", playerID)
		Error(w, http.StatusInternalServerError, "failed to load player")
		return
	}
	if player == nil {
		Error(w, http.StatusUnauthorized, "player not found")
		return
	}

	runs, err := h.repo.PlayerRuns(r.Context(), playerID, recentRunsLimit)
	if err != nil {
		slog.Error("Failed to load player runs", "error", err, "player_id", playerID)
		Error(w, http.StatusInternalServerError, "failed to load runs")
		return
	}

	if runs == nil {
		runs = []*domain.Run{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"player_id": player.PlayerID,
		"name":      player.Name,
		"tab_id":    identity.TabIDFromContext(r.Context()),
		"runs":      runs,
	})
}

// TopRuns returns the hall of fame. ?limit=n is clamped to 1..100.
func (h *PlayerHandler) TopRuns(w http.ResponseWriter, r *http.Request) {
	limit := h.hallOfFameLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.repo.TopRuns(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to load hall of fame", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load runs")
		return
	}

	if runs == nil {
		runs = []*domain.Run{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
