package domain

import "time"

// RunOutcome is how a finished game ended.
type RunOutcome string

const (
	RunVictory    RunOutcome = "victory"
	RunEliminated RunOutcome = "eliminated"
)

// Run is one finished game as kept in the hall of fame. Runs are a results log
// only; a game can never be resumed from one.
type Run struct {
	RunID      string     `json:"run_id"`
	PlayerID   string     `json:"-"`
	PlayerName string     `json:"player_name"`
	House      string     `json:"house"`
	Points     int        `json:"points"`
	Completed  int        `json:"completed"`
	Outcome    RunOutcome `json:"outcome"`
	Title      string     `json:"title,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
}
