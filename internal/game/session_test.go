package game

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func newStartedSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(DefaultCatalog())
	if err := s.SelectHouse("Gryffindor"); err != nil {
		t.Fatalf("SelectHouse failed: %v", err)
	}
	return s
}

func mustResolve(t *testing.T, s *Session, id int, success bool) Outcome {
	t.Helper()
	out, err := s.Resolve(id, success)
	if err != nil {
		t.Fatalf("Resolve(%d, %v) failed: %v", id, success, err)
	}
	return out
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession(DefaultCatalog())

	if s.TotalPoints() != 0 {
		t.Errorf("Expected 0 points, got %d", s.TotalPoints())
	}
	if s.LivesRemaining() != MaxLives {
		t.Errorf("Expected %d lives, got %d", MaxLives, s.LivesRemaining())
	}
	if s.Eliminated() {
		t.Error("Expected fresh session not to be eliminated")
	}
	if s.Phase() != PhaseNotStarted {
		t.Errorf("Expected phase %s, got %s", PhaseNotStarted, s.Phase())
	}
	for _, c := range s.Challenges() {
		if c.Unlocked != (c.ID == 1) {
			t.Errorf("Challenge %d: expected unlocked=%v, got %v", c.ID, c.ID == 1, c.Unlocked)
		}
	}
}

func TestSelectHouse(t *testing.T) {
	s := NewSession(DefaultCatalog())

	if err := s.SelectHouse("  RavenClaw "); err != nil {
		t.Fatalf("SelectHouse failed: %v", err)
	}
	if s.House() != "ravenclaw" {
		t.Errorf("Expected house ravenclaw, got %q", s.House())
	}
	if s.Phase() != PhaseHouseSelected {
		t.Errorf("Expected phase %s, got %s", PhaseHouseSelected, s.Phase())
	}

	if err := s.SelectHouse("slytherin"); err != nil {
		t.Fatalf("SelectHouse overwrite failed: %v", err)
	}
	if s.House() != "slytherin" {
		t.Errorf("Expected house slytherin after overwrite, got %q", s.House())
	}

	err := s.SelectHouse("durmstrang")
	if !errors.Is(err, ErrInvalidHouse) {
		t.Fatalf("Expected ErrInvalidHouse, got %v", err)
	}
	if s.House() != "slytherin" {
		t.Errorf("Rejected house changed state to %q", s.House())
	}
}

func TestCanOpenRejections(t *testing.T) {
	s := NewSession(DefaultCatalog())
	if _, err := s.CanOpen(1); !errors.Is(err, ErrHouseNotSelected) {
		t.Fatalf("Expected ErrHouseNotSelected, got %v", err)
	}

	s = newStartedSession(t)
	if _, err := s.CanOpen(2); !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}
	if _, err := s.CanOpen(42); !errors.Is(err, ErrUnknownChallenge) {
		t.Errorf("Expected ErrUnknownChallenge, got %v", err)
	}
	c, err := s.CanOpen(1)
	if err != nil {
		t.Fatalf("Expected challenge 1 to open, got %v", err)
	}
	if c.Kind() != KindQuiz {
		t.Errorf("Expected quiz, got %s", c.Kind())
	}

	mustResolve(t, s, 1, true)
	if _, err := s.CanOpen(1); !errors.Is(err, ErrCompleted) {
		t.Errorf("Expected ErrCompleted, got %v", err)
	}
}

func TestQuizSuccessScenario(t *testing.T) {
	s := newStartedSession(t)
	c, _ := s.Challenge(1)
	zero := 0

	out := mustResolve(t, s, 1, c.Evaluate(QuizAnswer{Selected: &zero}))

	if !out.Success || out.PointsDelta != 80 {
		t.Fatalf("Expected success worth 80 points, got %+v", out)
	}
	if s.TotalPoints() != 80 {
		t.Errorf("Expected 80 points, got %d", s.TotalPoints())
	}
	next, _ := s.Challenge(2)
	if !next.Unlocked {
		t.Error("Expected challenge 2 to be unlocked")
	}
	if out.Message != "Challenge completed successfully! You earned 80 points." {
		t.Errorf("Unexpected message %q", out.Message)
	}
}

func TestQuizFailureScenario(t *testing.T) {
	s := newStartedSession(t)
	c, _ := s.Challenge(1)
	one := 1

	out := mustResolve(t, s, 1, c.Evaluate(QuizAnswer{Selected: &one}))

	if out.Success || out.LivesDelta != -1 {
		t.Fatalf("Expected failure costing one life, got %+v", out)
	}
	if s.LivesRemaining() != 2 {
		t.Errorf("Expected 2 lives, got %d", s.LivesRemaining())
	}
	if s.IsCompleted(1) {
		t.Error("Expected challenge 1 to remain incomplete")
	}
	if _, err := s.CanOpen(1); err != nil {
		t.Errorf("Expected challenge 1 to stay available, got %v", err)
	}
	if out.Message != "Incorrect! You lost a life. Lives remaining: 2" {
		t.Errorf("Unexpected message %q", out.Message)
	}
}

func TestCompletingUnlocksOnlyNext(t *testing.T) {
	s := newStartedSession(t)
	mustResolve(t, s, 1, true)
	mustResolve(t, s, 2, true)

	for _, c := range s.Challenges() {
		want := c.ID <= 3
		if c.Unlocked != want {
			t.Errorf("Challenge %d: expected unlocked=%v, got %v", c.ID, want, c.Unlocked)
		}
	}
}

func TestThreeFailuresEliminate(t *testing.T) {
	s := newStartedSession(t)

	for i := 0; i < 3; i++ {
		mustResolve(t, s, 1, false)
	}

	if !s.Eliminated() {
		t.Fatal("Expected elimination after three failures")
	}
	if s.LivesRemaining() != 0 {
		t.Errorf("Expected 0 lives, got %d", s.LivesRemaining())
	}
	if s.Phase() != PhaseEliminated {
		t.Errorf("Expected phase %s, got %s", PhaseEliminated, s.Phase())
	}
	for id := 1; id <= 7; id++ {
		if _, err := s.CanOpen(id); !errors.Is(err, ErrEliminated) {
			t.Errorf("CanOpen(%d): expected ErrEliminated, got %v", id, err)
		}
	}
	if _, err := s.Resolve(1, false); !errors.Is(err, ErrEliminated) {
		t.Errorf("Expected Resolve after elimination to be rejected, got %v", err)
	}
	if s.LivesRemaining() != 0 {
		t.Errorf("Lives went below zero: %d", s.LivesRemaining())
	}
	if err := s.SelectHouse("hufflepuff"); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver selecting a house after elimination, got %v", err)
	}
}

func TestResolveDoesNotDoubleCount(t *testing.T) {
	s := newStartedSession(t)
	mustResolve(t, s, 1, true)
	out := mustResolve(t, s, 1, true)

	if out.PointsDelta != 0 {
		t.Errorf("Expected no points for repeated completion, got %d", out.PointsDelta)
	}
	if s.TotalPoints() != 80 {
		t.Errorf("Expected 80 points, got %d", s.TotalPoints())
	}
	if got := s.CompletedIDs(); !slices.Equal(got, []int{1}) {
		t.Errorf("Expected completed [1], got %v", got)
	}
}

func TestVictoryRegardlessOfOrder(t *testing.T) {
	s := newStartedSession(t)

	var out Outcome
	for id := 7; id >= 1; id-- {
		if s.Victorious() {
			t.Fatalf("Victory before all challenges completed (at %d)", id)
		}
		out = mustResolve(t, s, id, true)
	}

	if out.Phase != PhaseVictory || !out.Terminal() {
		t.Fatalf("Expected victory outcome, got %+v", out)
	}
	if s.TotalPoints() != 890 {
		t.Errorf("Expected 890 points, got %d", s.TotalPoints())
	}
	if out.Title != "Grand Champion" {
		t.Errorf("Expected Grand Champion, got %q", out.Title)
	}
	if got := s.CompletedIDs(); !slices.Equal(got, []int{7, 6, 5, 4, 3, 2, 1}) {
		t.Errorf("Expected completion order preserved, got %v", got)
	}
}

func TestPointsMatchCompletedChallenges(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 50; round++ {
		s := newStartedSession(t)
		prevLives := s.LivesRemaining()
		for step := 0; step < 20 && !s.Eliminated() && !s.Victorious(); step++ {
			id := rng.IntN(7) + 1
			mustResolve(t, s, id, rng.IntN(3) > 0)

			sum := 0
			for _, cid := range s.CompletedIDs() {
				c, _ := s.Challenge(cid)
				sum += c.Points
			}
			if sum != s.TotalPoints() {
				t.Fatalf("round %d: points %d != sum of completed %d", round, s.TotalPoints(), sum)
			}
			if s.LivesRemaining() > prevLives || s.LivesRemaining() < 0 {
				t.Fatalf("round %d: lives moved from %d to %d", round, prevLives, s.LivesRemaining())
			}
			if s.Eliminated() != (s.LivesRemaining() == 0) {
				t.Fatalf("round %d: eliminated=%v with %d lives", round, s.Eliminated(), s.LivesRemaining())
			}
			prevLives = s.LivesRemaining()
		}
	}
}

func TestTitleThresholds(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, "Apprentice"},
		{499, "Apprentice"},
		{500, "Champion"},
		{699, "Champion"},
		{700, "Grand Champion"},
		{890, "Grand Champion"},
	}
	for _, tt := range tests {
		if got := Title(tt.points); got != tt.want {
			t.Errorf("Title(%d) = %q, want %q", tt.points, got, tt.want)
		}
	}
}

func TestVisibleStatuses(t *testing.T) {
	s := newStartedSession(t)
	mustResolve(t, s, 1, true)

	st := s.Visible()
	if st.HouseDisplay != "Gryffindor" {
		t.Errorf("Expected display name Gryffindor, got %q", st.HouseDisplay)
	}
	want := map[int]ChallengeStatus{1: StatusCompleted, 2: StatusAvailable, 3: StatusLocked}
	for _, v := range st.Challenges {
		if w, ok := want[v.ID]; ok && v.Status != w {
			t.Errorf("Challenge %d: expected %s, got %s", v.ID, w, v.Status)
		}
	}
	if HouseDisplayName("") != "Select your house first!" {
		t.Errorf("Unexpected prompt %q", HouseDisplayName(""))
	}
}
