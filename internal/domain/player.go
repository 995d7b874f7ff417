// Package domain contains core domain types for the Wizard Trials application.
package domain

import (
	"time"
)

// Player is an anonymous player identified by a browser cookie.
type Player struct {
	PlayerID   string    `json:"player_id"`
	Name       string    `json:"name"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

