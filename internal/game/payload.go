package game

import (
	"slices"
	"strings"
)

// SpeedPassThreshold is the number of correct answers a speed round needs,
// regardless of how many questions it asks.
const SpeedPassThreshold = 2

// Quiz is a multiple-choice question.
type Quiz struct {
	Question     string
	Options      []string
	CorrectIndex int
}

// QuizAnswer carries the selected option; nil means nothing was selected.
type QuizAnswer struct {
	Selected *int
}

func (Quiz) Kind() Kind { return KindQuiz }
func (Quiz) isPayload() {}

func (q Quiz) Evaluate(a Answer) bool {
	ans, ok := a.(QuizAnswer)
	if !ok || ans.Selected == nil {
		return false
	}
	return *ans.Selected == q.CorrectIndex
}

// Memory asks the player to rebuild a symbol sequence after it is hidden.
type Memory struct {
	Sequence []string
}

// MemoryAnswer is the order in which the player picked symbols.
type MemoryAnswer struct {
	Selection []string
}

func (Memory) Kind() Kind { return KindMemory }
func (Memory) isPayload() {}

func (m Memory) Evaluate(a Answer) bool {
	ans, ok := a.(MemoryAnswer)
	if !ok {
		return false
	}
	return slices.Equal(ans.Selection, m.Sequence)
}

// SpeedQuestion is one prompt of a speed round.
type SpeedQuestion struct {
	Prompt string
	Answer string
}

// Speed is a timed round of short questions.
type Speed struct {
	TimeLimitSeconds int
	Questions        []SpeedQuestion
}

// SpeedAnswer holds the submitted answers in question order. Missing trailing
// answers count as wrong.
type SpeedAnswer struct {
	Answers []string
}

func (Speed) Kind() Kind { return KindSpeed }
func (Speed) isPayload() {}

// Correct reports whether answer matches question i.
func (s Speed) Correct(i int, answer string) bool {
	if i < 0 || i >= len(s.Questions) {
		return false
	}
	return normalize(answer) == normalize(s.Questions[i].Answer)
}

// CountCorrect returns how many of the answers are right.
func (s Speed) CountCorrect(answers []string) int {
	n := 0
	for i, a := range answers {
		if s.Correct(i, a) {
			n++
		}
	}
	return n
}

func (s Speed) Evaluate(a Answer) bool {
	ans, ok := a.(SpeedAnswer)
	if !ok {
		return false
	}
	return s.CountCorrect(ans.Answers) >= SpeedPassThreshold
}

// Pattern is a tile sequence played back for the player to repeat.
type Pattern struct {
	Sequence []int
	Colors   []string
}

// PatternAnswer is the tiles the player clicked, in order.
type PatternAnswer struct {
	Clicks []int
}

func (Pattern) Kind() Kind { return KindPattern }
func (Pattern) isPayload() {}

// TileCount is the number of distinct tiles on the board.
func (p Pattern) TileCount() int { return len(p.Colors) }

func (p Pattern) Evaluate(a Answer) bool {
	ans, ok := a.(PatternAnswer)
	if !ok {
		return false
	}
	return slices.Equal(ans.Clicks, p.Sequence)
}

// Riddle is a free-text riddle with optional hints.
type Riddle struct {
	Text   string
	Answer string
	Hints  []string
}

// RiddleAnswer is the player's guess.
type RiddleAnswer struct {
	Text string
}

func (Riddle) Kind() Kind { return KindRiddle }
func (Riddle) isPayload() {}

func (r Riddle) Evaluate(a Answer) bool {
	ans, ok := a.(RiddleAnswer)
	if !ok {
		return false
	}
	guess := normalize(ans.Text)
	return guess != "" && guess == strings.ToLower(r.Answer)
}

// SortingItem is an item with the category it belongs to.
type SortingItem struct {
	Name     string
	Category string
}

// SortingRequiredItems is how many items must be correctly placed.
const SortingRequiredItems = 6

// Sorting asks the player to drop every item in its category bucket.
type Sorting struct {
	Items      []SortingItem
	Categories []string
}

// SortingAnswer maps item name to the category bucket it was dropped in.
type SortingAnswer struct {
	Placements map[string]string
}

func (Sorting) Kind() Kind { return KindSorting }
func (Sorting) isPayload() {}

// HasItem reports whether name is one of the items to sort.
func (s Sorting) HasItem(name string) bool {
	return slices.ContainsFunc(s.Items, func(it SortingItem) bool { return it.Name == name })
}

// HasCategory reports whether category is one of the buckets.
func (s Sorting) HasCategory(category string) bool {
	return slices.Contains(s.Categories, category)
}

func (s Sorting) Evaluate(a Answer) bool {
	ans, ok := a.(SortingAnswer)
	if !ok || len(s.Items) != SortingRequiredItems {
		return false
	}
	for _, it := range s.Items {
		placed, ok := ans.Placements[it.Name]
		if !ok || placed != it.Category {
			return false
		}
	}
	return true
}

func (QuizAnswer) isAnswer()    {}
func (MemoryAnswer) isAnswer()  {}
func (SpeedAnswer) isAnswer()   {}
func (PatternAnswer) isAnswer() {}
func (RiddleAnswer) isAnswer()  {}
func (SortingAnswer) isAnswer() {}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
