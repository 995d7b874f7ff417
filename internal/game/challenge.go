// Package game implements the wizarding trials: the challenge catalog, the session
// state machine that enforces progression and scoring, and the controller that runs
// timed challenge flows on top of it.
package game

// Kind identifies the mini-game a challenge plays.
type Kind string

const (
	KindQuiz    Kind = "quiz"
	KindMemory  Kind = "memory"
	KindSpeed   Kind = "speed"
	KindPattern Kind = "pattern"
	KindRiddle  Kind = "riddle"
	KindSorting Kind = "sorting"
)

// Difficulty is an informational tag shown next to a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Challenge is one catalog entry. Only Unlocked changes during play.
type Challenge struct {
	ID          int
	Title       string
	Description string
	Difficulty  Difficulty
	Points      int
	Payload     Payload
	Unlocked    bool
}

// Kind reports the challenge's mini-game kind.
func (c Challenge) Kind() Kind {
	if c.Payload == nil {
		return ""
	}
	return c.Payload.Kind()
}

// Evaluate judges one attempt at the challenge.
func (c Challenge) Evaluate(a Answer) bool {
	if c.Payload == nil {
		return false
	}
	return c.Payload.Evaluate(a)
}

// Payload is the kind-specific part of a challenge. The set of implementations is
// closed: Quiz, Memory, Speed, Pattern, Riddle and Sorting.
type Payload interface {
	Kind() Kind
	// Evaluate reports whether the answer succeeds. An answer of the wrong kind,
	// or a nil answer, fails.
	Evaluate(Answer) bool
	isPayload()
}

// Answer is the player input for one attempt. Each payload accepts exactly one
// answer type.
type Answer interface {
	isAnswer()
}
