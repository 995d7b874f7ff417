// Package identity gives every browser an anonymous player and every tab its own
// game seat.
//
// A player is a long-lived cookie backed by a row in the players table; the
// display name shown in the hall of fame is stored with it. A tab is chosen by the
// client (header or query parameter) and scopes the game, so two tabs of the same
// player play independent games.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/wizard-trials/internal/domain"
	"github.com/ashureev/wizard-trials/internal/store"
)

const (
	PlayerCookieName      = "trials_player_id"
	TabHeaderName         = "X-Trials-Tab-ID"
	TabQueryParam         = "tab_id"
	DefaultTabID          = "default"
	playerCookieMaxAge    = 30 * 24 * time.Hour
	lastSeenWriteInterval = time.Minute
)

var (
	playerIDPattern = regexp.MustCompile(`^player_[a-f0-9]{32}$`)
	tabIDPattern    = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)
)

var (
	nameTraits    = []string{"Brave", "Clever", "Loyal", "Cunning", "Bold", "Wise", "Swift", "Quiet"}
	nameCreatures = []string{"Phoenix", "Hippogriff", "Niffler", "Thestral", "Kneazle", "Basilisk", "Bowtruckle", "Griffin"}
)

// Identity is the player behind a request and the tab they are playing in.
type Identity struct {
	PlayerID string
	Name     string
	TabID    string
}

type contextKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity set by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.PlayerID != ""
}

// WithPlayer is WithIdentity for callers that only know the player and tab; the
// name is derived from the player ID.
func WithPlayer(ctx context.Context, playerID, tabID string) context.Context {
	return WithIdentity(ctx, Identity{
		PlayerID: playerID,
		Name:     WizardName(playerID),
		TabID:    SanitizeTabID(tabID),
	})
}

// PlayerIDFromContext extracts the player ID from the request context.
func PlayerIDFromContext(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.PlayerID
}

// PlayerNameFromContext extracts the display name from the request context.
func PlayerNameFromContext(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.Name
}

// TabIDFromContext extracts the browser tab ID, DefaultTabID when none was sent.
func TabIDFromContext(ctx context.Context) string {
	if id, ok := FromContext(ctx); ok && id.TabID != "" {
		return id.TabID
	}
	return DefaultTabID
}

// WizardName derives a stable display name such as "Clever Niffler 3f2a" from a
// player ID. IDs not issued by this package get a generic name.
func WizardName(playerID string) string {
	if !isValidPlayerID(playerID) {
		return "Unknown Wizard"
	}
	tail := playerID[len(playerID)-8:]
	trait, _ := strconv.ParseUint(tail[0:2], 16, 8)
	creature, _ := strconv.ParseUint(tail[2:4], 16, 8)
	return fmt.Sprintf("%s %s %s",
		nameTraits[int(trait)%len(nameTraits)],
		nameCreatures[int(creature)%len(nameCreatures)],
		tail[4:])
}

// SanitizeTabID returns id when it is a usable tab ID and DefaultTabID otherwise.
func SanitizeTabID(id string) string {
	id = strings.TrimSpace(id)
	if !tabIDPattern.MatchString(id) {
		return DefaultTabID
	}
	return id
}

func generatePlayerID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate player id: %w", err)
	}
	return "player_" + hex.EncodeToString(buf), nil
}

func isValidPlayerID(id string) bool {
	return playerIDPattern.MatchString(id)
}

// ensurePlayer loads the player row, creating it on first sight. last_seen_at is
// refreshed at most once per lastSeenWriteInterval. A row without a name gets the
// derived one.
func ensurePlayer(ctx context.Context, repo store.Repository, playerID string) (*domain.Player, error) {
	p, err := repo.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}

	now := time.Now()
	if p == nil {
		p = &domain.Player{
			PlayerID:   playerID,
			Name:       WizardName(playerID),
			LastSeenAt: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repo.UpsertPlayer(ctx, p); err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
		slog.Info("Player created", "player_id", playerID, "name", p.Name)
		return p, nil
	}

	if p.Name == "" {
		p.Name = WizardName(playerID)
		p.LastSeenAt, p.UpdatedAt = now, now
		if err := repo.UpsertPlayer(ctx, p); err != nil {
			slog.Warn("Failed to backfill player name", "player_id", playerID, "error", err)
		}
		return p, nil
	}

	if now.Sub(p.LastSeenAt) >= lastSeenWriteInterval {
		if err := repo.UpdateLastSeen(ctx, playerID, now); err != nil {
			slog.Warn("Failed to refresh player last seen", "player_id", playerID, "error", err)
		}
	}
	return p, nil
}

func setPlayerCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     PlayerCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(playerCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(playerCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

func getOrCreatePlayerID(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	if c, err := r.Cookie(PlayerCookieName); err == nil && isValidPlayerID(c.Value) {
		setPlayerCookie(w, c.Value, isDev)
		return c.Value, nil
	}

	id, err := generatePlayerID()
	if err != nil {
		return "", err
	}
	setPlayerCookie(w, id, isDev)
	return id, nil
}

// tabIDFromRequest prefers the header; WebSocket clients cannot set headers and
// use the query parameter.
func tabIDFromRequest(r *http.Request) string {
	tab := r.Header.Get(TabHeaderName)
	if tab == "" {
		tab = r.URL.Query().Get(TabQueryParam)
	}
	return SanitizeTabID(tab)
}

// Middleware establishes the player and tab of every request. The resolved tab ID
// is echoed in the TabHeaderName response header so a client can tell which game
// it is bound to.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			playerID, err := getOrCreatePlayerID(w, r, isDev)
			if err != nil {
				slog.Error("Failed to issue player id", "error", err)
				http.Error(w, `{"error":"failed to establish player identity"}`, http.StatusInternalServerError)
				return
			}

			player, err := ensurePlayer(r.Context(), repo, playerID)
			if err != nil {
				slog.Error("Failed to initialize player", "player_id", playerID, "error", err)
				http.Error(w, `{"error":"failed to initialize player"}`, http.StatusInternalServerError)
				return
			}

			id := Identity{PlayerID: playerID, Name: player.Name, TabID: tabIDFromRequest(r)}
			w.Header().Set(TabHeaderName, id.TabID)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
