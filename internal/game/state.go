package game

// ChallengeStatus is how a challenge card is shown.
type ChallengeStatus string

const (
	StatusLocked    ChallengeStatus = "locked"
	StatusAvailable ChallengeStatus = "available"
	StatusCompleted ChallengeStatus = "completed"
)

// ChallengeView is a catalog entry as the presentation layer sees it.
type ChallengeView struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        Kind            `json:"kind"`
	Difficulty  Difficulty      `json:"difficulty"`
	Points      int             `json:"points"`
	Status      ChallengeStatus `json:"status"`
}

// Stage is the step an open challenge is at.
type Stage string

const (
	StageReady     Stage = "ready"
	StageShowing   Stage = "showing"
	StageHiding    Stage = "hiding"
	StageRecall    Stage = "recall"
	StageRunning   Stage = "running"
	StagePlaying   Stage = "playing"
	StageRepeat    Stage = "repeat"
	StageAnswering Stage = "answering"
)

// ActiveView describes the challenge in progress. Only the fields relevant to its
// kind are set.
type ActiveView struct {
	ChallengeID int    `json:"challenge_id"`
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Points      int    `json:"points"`
	Stage       Stage  `json:"stage"`

	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`

	Sequence  []string `json:"sequence,omitempty"`
	Symbols   []string `json:"symbols,omitempty"`
	Selection []string `json:"selection,omitempty"`

	TimeLimit     int    `json:"time_limit,omitempty"`
	SecondsLeft   int    `json:"seconds_left"`
	QuestionIndex int    `json:"question_index"`
	QuestionCount int    `json:"question_count,omitempty"`
	Prompt        string `json:"prompt,omitempty"`

	Colors        []string `json:"colors,omitempty"`
	Highlight     *int     `json:"highlight,omitempty"`
	Clicks        []int    `json:"clicks,omitempty"`
	PatternLength int      `json:"pattern_length,omitempty"`

	Riddle         string   `json:"riddle,omitempty"`
	Hints          []string `json:"hints,omitempty"`
	HintsRemaining int      `json:"hints_remaining"`

	Items      []string          `json:"items,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	Placements map[string]string `json:"placements,omitempty"`
}

// VisibleState is everything the presentation layer needs to render the game.
type VisibleState struct {
	House          string          `json:"house"`
	HouseDisplay   string          `json:"house_display"`
	TotalPoints    int             `json:"total_points"`
	LivesRemaining int             `json:"lives_remaining"`
	MaxLives       int             `json:"max_lives"`
	CompletedIDs   []int           `json:"completed_ids"`
	Challenges     []ChallengeView `json:"challenges"`
	Phase          Phase           `json:"phase"`
	Title          string          `json:"title,omitempty"`
	Active         *ActiveView     `json:"active,omitempty"`
}

// StatusOf reports a challenge's card status within the session.
func (s *Session) StatusOf(c Challenge) ChallengeStatus {
	switch {
	case s.IsCompleted(c.ID):
		return StatusCompleted
	case c.Unlocked:
		return StatusAvailable
	default:
		return StatusLocked
	}
}

// Visible builds the session part of VisibleState.
func (s *Session) Visible() VisibleState {
	views := make([]ChallengeView, 0, len(s.challenges))
	for _, c := range s.challenges {
		views = append(views, ChallengeView{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Kind:        c.Kind(),
			Difficulty:  c.Difficulty,
			Points:      c.Points,
			Status:      s.StatusOf(c),
		})
	}
	completed := s.CompletedIDs()
	if completed == nil {
		completed = []int{}
	}
	st := VisibleState{
		House:          s.house,
		HouseDisplay:   HouseDisplayName(s.house),
		TotalPoints:    s.points,
		LivesRemaining: s.lives,
		MaxLives:       MaxLives,
		CompletedIDs:   completed,
		Challenges:     views,
		Phase:          s.Phase(),
	}
	if st.Phase == PhaseVictory {
		st.Title = Title(s.points)
	}
	return st
}
