package game

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
)

// attempt is the challenge currently open in a Controller together with the timers
// it owns. gen increases with every attempt so late timer callbacks can tell they
// belong to a superseded one.
type attempt struct {
	gen       uint64
	challenge Challenge
	tasks     tasks
	state     attemptState
}

type attemptState interface {
	view() ActiveView
}

func newAttemptState(c Challenge, rng *rand.Rand) (attemptState, error) {
	switch p := c.Payload.(type) {
	case Quiz:
		return &quizState{quiz: p}, nil
	case Memory:
		symbols := slices.Clone(p.Sequence)
		rng.Shuffle(len(symbols), func(i, j int) { symbols[i], symbols[j] = symbols[j], symbols[i] })
		return &memoryState{memory: p, stage: StageReady, symbols: symbols}, nil
	case Speed:
		return &speedState{speed: p, stage: StageReady, secondsLeft: p.TimeLimitSeconds}, nil
	case Pattern:
		return &patternState{pattern: p, stage: StageReady, highlight: -1}, nil
	case Riddle:
		return &riddleState{riddle: p}, nil
	case Sorting:
		order := make([]string, 0, len(p.Items))
		for _, it := range p.Items {
			order = append(order, it.Name)
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		return &sortingState{sorting: p, order: order, placements: make(map[string]string)}, nil
	default:
		return nil, fmt.Errorf("%w: challenge %d has no playable payload", ErrUnknownChallenge, c.ID)
	}
}

type quizState struct {
	quiz Quiz
}

func (s *quizState) view() ActiveView {
	return ActiveView{
		Stage:    StageAnswering,
		Question: s.quiz.Question,
		Options:  slices.Clone(s.quiz.Options),
	}
}

type memoryState struct {
	memory    Memory
	stage     Stage
	symbols   []string
	selection []string
}

// selectSymbol records a pick during recall. Each symbol counts once and picks stop
// at the sequence length.
func (s *memoryState) selectSymbol(symbol string) error {
	if s.stage != StageRecall {
		return ErrNotReady
	}
	if !slices.Contains(s.symbols, symbol) {
		return fmt.Errorf("%w: unknown symbol %q", ErrInvalidInput, symbol)
	}
	if slices.Contains(s.selection, symbol) {
		return fmt.Errorf("%w: %q already selected", ErrInvalidInput, symbol)
	}
	if len(s.selection) >= len(s.memory.Sequence) {
		return fmt.Errorf("%w: selection is full", ErrInvalidInput)
	}
	s.selection = append(s.selection, symbol)
	return nil
}

func (s *memoryState) view() ActiveView {
	v := ActiveView{Stage: s.stage, Selection: slices.Clone(s.selection)}
	switch s.stage {
	case StageShowing:
		v.Sequence = slices.Clone(s.memory.Sequence)
	case StageRecall:
		v.Symbols = slices.Clone(s.symbols)
	}
	return v
}

type speedState struct {
	speed       Speed
	stage       Stage
	secondsLeft int
	answers     []string
}

func (s *speedState) finished() bool {
	return len(s.answers) >= len(s.speed.Questions)
}

func (s *speedState) view() ActiveView {
	v := ActiveView{
		Stage:         s.stage,
		TimeLimit:     s.speed.TimeLimitSeconds,
		SecondsLeft:   s.secondsLeft,
		QuestionIndex: len(s.answers),
		QuestionCount: len(s.speed.Questions),
	}
	if s.stage == StageRunning && !s.finished() {
		v.Prompt = s.speed.Questions[len(s.answers)].Prompt
	}
	return v
}

type patternState struct {
	pattern   Pattern
	stage     Stage
	highlight int
	clicks    []int
}

func (s *patternState) view() ActiveView {
	v := ActiveView{
		Stage:         s.stage,
		Colors:        slices.Clone(s.pattern.Colors),
		Clicks:        slices.Clone(s.clicks),
		PatternLength: len(s.pattern.Sequence),
	}
	if s.highlight >= 0 {
		h := s.highlight
		v.Highlight = &h
	}
	return v
}

// NoMoreHints is the hint text once every hint has been revealed.
const NoMoreHints = "No more hints available!"

// Hint is the result of asking for a riddle hint.
type Hint struct {
	Number    int    `json:"number,omitempty"`
	Text      string `json:"text"`
	Exhausted bool   `json:"exhausted"`
}

type riddleState struct {
	riddle    Riddle
	hintsUsed int
}

// nextHint reveals the next hint in order, or reports that none are left.
func (s *riddleState) nextHint() Hint {
	if s.hintsUsed >= len(s.riddle.Hints) {
		return Hint{Text: NoMoreHints, Exhausted: true}
	}
	h := Hint{Number: s.hintsUsed + 1, Text: s.riddle.Hints[s.hintsUsed]}
	s.hintsUsed++
	return h
}

func (s *riddleState) view() ActiveView {
	return ActiveView{
		Stage:          StageAnswering,
		Riddle:         s.riddle.Text,
		Hints:          slices.Clone(s.riddle.Hints[:s.hintsUsed]),
		HintsRemaining: len(s.riddle.Hints) - s.hintsUsed,
	}
}

type sortingState struct {
	sorting    Sorting
	order      []string
	placements map[string]string
}

// place drops an item in a bucket. A later placement of the same item replaces the
// earlier one.
func (s *sortingState) place(item, category string) error {
	if !s.sorting.HasItem(item) {
		return fmt.Errorf("%w: unknown item %q", ErrInvalidInput, item)
	}
	if !s.sorting.HasCategory(category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	s.placements[item] = category
	return nil
}

func (s *sortingState) view() ActiveView {
	return ActiveView{
		Stage:      StageAnswering,
		Items:      slices.Clone(s.order),
		Categories: slices.Clone(s.sorting.Categories),
		Placements: maps.Clone(s.placements),
	}
}
