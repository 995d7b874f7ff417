package game

import "errors"

// Rejections returned by Session and Controller actions. None of them change state;
// the error text is suitable for showing to the player.
var (
	ErrHouseNotSelected  = errors.New("please select your house first")
	ErrInvalidHouse      = errors.New("unknown house")
	ErrEliminated        = errors.New("you have been eliminated, please restart the game")
	ErrGameOver          = errors.New("the game is over, please restart the game")
	ErrUnknownChallenge  = errors.New("unknown challenge")
	ErrLocked            = errors.New("challenge is locked")
	ErrCompleted         = errors.New("challenge already completed")
	ErrNoActiveChallenge = errors.New("no challenge in progress")
	ErrWrongKind         = errors.New("action does not apply to the challenge in progress")
	ErrNotReady          = errors.New("challenge is not accepting input yet")
	ErrAlreadyStarted    = errors.New("challenge already started")
	ErrInvalidInput      = errors.New("invalid input")
	ErrClosed            = errors.New("game session has ended")
)
