// Package api provides HTTP handlers for the Wizard Trials API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/wizard-trials/internal/identity"
	"github.com/ashureev/wizard-trials/internal/lobby"
	"github.com/ashureev/wizard-trials/internal/store"
)

// maxBodyBytes caps request bodies; every action payload is a handful of fields.
const maxBodyBytes = 4 << 10

// Handler provides common handler utilities.
type Handler struct {
	repo  store.Repository
	lobby *lobby.Lobby
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, lb *lobby.Lobby) *Handler {
	return &Handler{repo: repo, lobby: lb}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// tableKey returns the lobby key for the requesting tab.
func tableKey(r *http.Request) (lobby.Key, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		return lobby.Key{}, false
	}
	return lobby.Key{PlayerID: id.PlayerID, TabID: identity.TabIDFromContext(r.Context())}, true
}
