package game

import (
	"fmt"
	"slices"
)

// MaxLives is the number of failed attempts a player can afford.
const MaxLives = 3

// Phase is the session's position in the game flow.
type Phase string

const (
	PhaseNotStarted    Phase = "not_started"
	PhaseHouseSelected Phase = "house_selected"
	PhaseInProgress    Phase = "challenge_in_progress"
	PhaseVictory       Phase = "victory"
	PhaseEliminated    Phase = "eliminated"
)

// Session holds the progression state of one game: the chosen house, score,
// completed challenges and remaining lives. It knows nothing about timers or which
// challenge is open; the Controller layers that on top.
//
// A Session is not safe for concurrent use.
type Session struct {
	house      string
	points     int
	completed  []int
	lives      int
	eliminated bool
	challenges []Challenge
}

// NewSession starts a game over the given catalog. The catalog is copied, and only
// its first entry starts unlocked.
func NewSession(catalog []Challenge) *Session {
	return &Session{
		lives:      MaxLives,
		challenges: cloneCatalog(catalog),
	}
}

// Outcome describes the effect of resolving one attempt.
type Outcome struct {
	ChallengeID int    `json:"challenge_id"`
	Success     bool   `json:"success"`
	PointsDelta int    `json:"points_delta"`
	LivesDelta  int    `json:"lives_delta"`
	Message     string `json:"message"`
	Phase       Phase  `json:"phase"`
	Title       string `json:"title,omitempty"`
}

// Terminal reports whether the outcome ended the game.
func (o Outcome) Terminal() bool {
	return o.Phase == PhaseVictory || o.Phase == PhaseEliminated
}

// House returns the selected house, or "" if none.
func (s *Session) House() string { return s.house }

// TotalPoints returns the accumulated score.
func (s *Session) TotalPoints() int { return s.points }

// LivesRemaining returns the lives left, between 0 and MaxLives.
func (s *Session) LivesRemaining() int { return s.lives }

// Eliminated reports whether the player ran out of lives.
func (s *Session) Eliminated() bool { return s.eliminated }

// CompletedIDs returns the completed challenge ids in completion order.
func (s *Session) CompletedIDs() []int { return slices.Clone(s.completed) }

// Challenges returns a copy of the session's catalog with current unlock flags.
func (s *Session) Challenges() []Challenge { return slices.Clone(s.challenges) }

// Victorious reports whether every challenge has been completed.
func (s *Session) Victorious() bool {
	return len(s.challenges) > 0 && len(s.completed) == len(s.challenges)
}

// Phase returns the session phase, ignoring any open challenge.
func (s *Session) Phase() Phase {
	switch {
	case s.eliminated:
		return PhaseEliminated
	case s.Victorious():
		return PhaseVictory
	case s.house == "":
		return PhaseNotStarted
	default:
		return PhaseHouseSelected
	}
}

// IsCompleted reports whether the challenge id has been completed.
func (s *Session) IsCompleted(id int) bool {
	return slices.Contains(s.completed, id)
}

// Challenge looks up a challenge by id.
func (s *Session) Challenge(id int) (Challenge, bool) {
	i := s.index(id)
	if i < 0 {
		return Challenge{}, false
	}
	return s.challenges[i], true
}

func (s *Session) index(id int) int {
	return slices.IndexFunc(s.challenges, func(c Challenge) bool { return c.ID == id })
}

// SelectHouse records the player's house. Choosing again overwrites the previous
// choice. It is rejected once the game has ended.
func (s *Session) SelectHouse(name string) error {
	if s.eliminated || s.Victorious() {
		return ErrGameOver
	}
	h, err := ParseHouse(name)
	if err != nil {
		return err
	}
	s.house = h
	return nil
}

// CanOpen checks every precondition for starting an attempt at challenge id and
// returns the challenge when it may be opened.
func (s *Session) CanOpen(id int) (Challenge, error) {
	if s.house == "" {
		return Challenge{}, ErrHouseNotSelected
	}
	if s.eliminated {
		return Challenge{}, ErrEliminated
	}
	c, ok := s.Challenge(id)
	if !ok {
		return Challenge{}, fmt.Errorf("%w: %d", ErrUnknownChallenge, id)
	}
	if s.IsCompleted(id) {
		return Challenge{}, fmt.Errorf("%w: %s", ErrCompleted, c.Title)
	}
	if !c.Unlocked {
		return Challenge{}, fmt.Errorf("%w: %s", ErrLocked, c.Title)
	}
	return c, nil
}

// Resolve applies the result of one attempt. Success adds the challenge's points
// once, records it as completed and unlocks the next id. Failure costs one life and
// eliminates the player when none are left.
func (s *Session) Resolve(id int, success bool) (Outcome, error) {
	i := s.index(id)
	if i < 0 {
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnknownChallenge, id)
	}
	if s.eliminated {
		return Outcome{}, ErrEliminated
	}

	c := s.challenges[i]
	out := Outcome{ChallengeID: id, Success: success}

	if success {
		if !s.IsCompleted(id) {
			s.points += c.Points
			s.completed = append(s.completed, id)
			out.PointsDelta = c.Points
		}
		if next := s.index(id + 1); next >= 0 {
			s.challenges[next].Unlocked = true
		}
		out.Message = fmt.Sprintf("Challenge completed successfully! You earned %d points.", out.PointsDelta)
	} else {
		if s.lives > 0 {
			s.lives--
			out.LivesDelta = -1
		}
		if s.lives == 0 {
			s.eliminated = true
		}
		out.Message = fmt.Sprintf("Incorrect! You lost a life. Lives remaining: %d", s.lives)
	}

	out.Phase = s.Phase()
	if out.Phase == PhaseVictory {
		out.Title = Title(s.points)
	}
	return out, nil
}

// Title returns the ceremony title earned with the given final score.
func Title(points int) string {
	switch {
	case points >= 700:
		return "Grand Champion"
	case points >= 500:
		return "Champion"
	default:
		return "Apprentice"
	}
}
