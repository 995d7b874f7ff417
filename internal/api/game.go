package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/wizard-trials/internal/game"
	"github.com/ashureev/wizard-trials/internal/identity"
)

// GameHandler exposes the actions of the requesting tab's game.
type GameHandler struct {
	*Handler
}

// NewGameHandler creates a new game handler.
func NewGameHandler(base *Handler) *GameHandler {
	return &GameHandler{Handler: base}
}

// actionResponse is returned by every successful action.
type actionResponse struct {
	State   game.VisibleState `json:"state"`
	Outcome *game.Outcome     `json:"outcome,omitempty"`
	Hint    *game.Hint        `json:"hint,omitempty"`
}

// RegisterRoutes registers game routes.
func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/game", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Post("/house", h.SelectHouse)
		r.Post("/restart", h.Restart)
		r.Post("/close", h.CloseChallenge)
		r.Post("/challenges/{id}/open", h.OpenChallenge)

		r.Post("/quiz", h.SubmitQuiz)

		r.Post("/memory/start", h.StartMemory)
		r.Post("/memory/select", h.SelectMemorySymbol)
		r.Post("/memory/submit", h.SubmitMemory)

		r.Post("/speed/start", h.StartSpeed)
		r.Post("/speed/answer", h.AnswerSpeed)

		r.Post("/pattern/start", h.StartPattern)
		r.Post("/pattern/click", h.ClickPatternTile)
		r.Post("/pattern/submit", h.SubmitPattern)

		r.Post("/riddle/hint", h.RequestHint)
		r.Post("/riddle/submit", h.SubmitRiddle)

		r.Post("/sorting/place", h.PlaceSortingItem)
		r.Post("/sorting/submit", h.SubmitSorting)
	})
}

// act runs fn against the caller's game and writes the resulting state.
func (h *GameHandler) act(w http.ResponseWriter, r *http.Request, fn func(c *game.Controller) (actionResponse, error)) {
	key, ok := tableKey(r)
	if !ok {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctrl := h.lobby.Game(key, identity.PlayerNameFromContext(r.Context()))

	resp, err := fn(ctrl)
	if err != nil {
		h.reject(w, ctrl, key.PlayerID, err)
		return
	}
	resp.State = ctrl.State()
	JSON(w, http.StatusOK, resp)
}

func (h *GameHandler) reject(w http.ResponseWriter, ctrl *game.Controller, playerID string, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownChallenge):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrClosed):
		Error(w, http.StatusGone, err.Error())
	case isRejection(err):
		slog.Debug("Game action rejected", "player_id", playerID, "error", err)
		JSON(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
			"state": ctrl.State(),
		})
	default:
		slog.Error("Game action failed", "player_id", playerID, "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

var rejections = []error{
	game.ErrHouseNotSelected,
	game.ErrInvalidHouse,
	game.ErrEliminated,
	game.ErrGameOver,
	game.ErrLocked,
	game.ErrCompleted,
	game.ErrNoActiveChallenge,
	game.ErrWrongKind,
	game.ErrNotReady,
	game.ErrAlreadyStarted,
	game.ErrInvalidInput,
}

func isRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeOrReject decodes the body into v, writing 400 on failure.
func decodeOrReject(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeBody(w, r, v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func withOutcome(out game.Outcome, err error) (actionResponse, error) {
	if err != nil {
		return actionResponse{}, err
	}
	return actionResponse{Outcome: &out}, nil
}

func plain(err error) (actionResponse, error) {
	return actionResponse{}, err
}

// GetState returns the caller's visible game state.
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(*game.Controller) (actionResponse, error) {
		return actionResponse{}, nil
	})
}

// SelectHouse handles {"house": "..."}.
func (h *GameHandler) SelectHouse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		House string `json:"house"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.SelectHouse(req.House))
	})
}

// Restart starts a fresh game in the same tab.
func (h *GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.Restart())
	})
}

// CloseChallenge abandons the challenge in progress.
func (h *GameHandler) CloseChallenge(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.CloseChallenge())
	})
}

// OpenChallenge starts an attempt at the challenge named in the path.
func (h *GameHandler) OpenChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid challenge id")
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		_, err := c.OpenChallenge(id)
		return plain(err)
	})
}

// SubmitQuiz handles {"option": n}. A missing option counts as a wrong answer.
func (h *GameHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Option *int `json:"option"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return withOutcome(c.SubmitQuiz(req.Option))
	})
}

// StartMemory shows the sequence to memorise.
func (h *GameHandler) StartMemory(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.StartMemory())
	})
}

// SelectMemorySymbol handles {"symbol": "..."}.
func (h *GameHandler) SelectMemorySymbol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.SelectMemorySymbol(req.Symbol))
	})
}

// SubmitMemory checks the recalled sequence.
func (h *GameHandler) SubmitMemory(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return withOutcome(c.SubmitMemory())
	})
}

// StartSpeed starts the countdown.
func (h *GameHandler) StartSpeed(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.StartSpeed())
	})
}

// AnswerSpeed handles {"answer": "..."}. The outcome is present once the last
// question is answered.
func (h *GameHandler) AnswerSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		out, err := c.AnswerSpeed(req.Answer)
		return actionResponse{Outcome: out}, err
	})
}

// StartPattern plays the pattern.
func (h *GameHandler) StartPattern(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.StartPattern())
	})
}

// ClickPatternTile handles {"tile": n}.
func (h *GameHandler) ClickPatternTile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tile *int `json:"tile"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	if req.Tile == nil {
		Error(w, http.StatusBadRequest, "tile is required")
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.ClickPatternTile(*req.Tile))
	})
}

// SubmitPattern checks the clicked tiles.
func (h *GameHandler) SubmitPattern(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return withOutcome(c.SubmitPattern())
	})
}

// RequestHint reveals the next riddle hint.
func (h *GameHandler) RequestHint(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		hint, err := c.RequestHint()
		if err != nil {
			return actionResponse{}, err
		}
		return actionResponse{Hint: &hint}, nil
	})
}

// SubmitRiddle handles {"answer": "..."}.
func (h *GameHandler) SubmitRiddle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return withOutcome(c.SubmitRiddle(req.Answer))
	})
}

// PlaceSortingItem handles {"item": "...", "category": "..."}.
func (h *GameHandler) PlaceSortingItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item     string `json:"item"`
		Category string `json:"category"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return plain(c.PlaceSortingItem(req.Item, req.Category))
	})
}

// SubmitSorting checks the placements.
func (h *GameHandler) SubmitSorting(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(c *game.Controller) (actionResponse, error) {
		return withOutcome(c.SubmitSorting())
	})
}
