package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Timing holds the delays of the timed challenge flows.
type Timing struct {
	MemoryDisplay    time.Duration
	MemoryFade       time.Duration
	SpeedTick        time.Duration
	PatternStep      time.Duration
	PatternHighlight time.Duration
}

// DefaultTiming returns the delays the game is played with.
func DefaultTiming() Timing {
	return Timing{
		MemoryDisplay:    5 * time.Second,
		MemoryFade:       500 * time.Millisecond,
		SpeedTick:        time.Second,
		PatternStep:      800 * time.Millisecond,
		PatternHighlight: 600 * time.Millisecond,
	}
}

// Controller owns one game: its Session, the challenge in progress and the timers
// that drive it. All methods are safe for concurrent use; timer callbacks and player
// actions are serialized.
type Controller struct {
	mu        sync.Mutex
	deliverMu sync.Mutex
	closed    bool
	catalog   []Challenge
	session   *Session
	active    *attempt
	gen       uint64
	clock     Clock
	rng       *rand.Rand
	timing    Timing
	listener  Listener
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog replaces the default catalog.
func WithCatalog(catalog []Challenge) Option {
	return func(c *Controller) { c.catalog = cloneCatalog(catalog) }
}

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithRand sets the source used to shuffle memory symbols and sorting items.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) { c.rng = rng }
}

// WithTiming overrides the flow delays.
func WithTiming(t Timing) Option {
	return func(c *Controller) { c.timing = t }
}

// WithListener registers the event listener.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// NewController starts a fresh game.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		catalog: DefaultCatalog(),
		clock:   SystemClock{},
		timing:  DefaultTiming(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c.session = NewSession(c.catalog)
	return c
}

// SetListener replaces the event listener.
func (c *Controller) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// State returns the current visible state.
func (c *Controller) State() VisibleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() VisibleState {
	st := c.session.Visible()
	if c.active != nil {
		v := c.activeViewLocked()
		st.Active = &v
		st.Phase = PhaseInProgress
	}
	return st
}

func (c *Controller) activeViewLocked() ActiveView {
	a := c.active
	v := a.state.view()
	v.ChallengeID = a.challenge.ID
	v.Kind = a.challenge.Kind()
	v.Title = a.challenge.Title
	v.Points = a.challenge.Points
	return v
}

// do runs fn under the lock. When fn changed anything, a state event is appended and
// all collected events are delivered after the lock is released. deliverMu is taken
// before mu is released so batches reach the listener in the order they were made.
func (c *Controller) do(fn func(b *batch) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	b := &batch{}
	err := fn(b)
	if b.changed {
		b.add(EventState, c.stateLocked())
	}
	l := c.listener
	c.deliverMu.Lock()
	c.mu.Unlock()

	b.flush(l)
	c.deliverMu.Unlock()
	return err
}

// Close cancels any pending timers and detaches the listener. Every later action
// returns ErrClosed. It returns once events already handed to the listener have been
// delivered, so it must not be called from the listener.
func (c *Controller) Close() {
	c.mu.Lock()
	c.abandonLocked()
	c.listener = nil
	c.closed = true
	c.mu.Unlock()

	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
}

// SelectHouse records the player's house.
func (c *Controller) SelectHouse(house string) error {
	return c.do(func(b *batch) error {
		if err := c.session.SelectHouse(house); err != nil {
			return err
		}
		b.changed = true
		return nil
	})
}

// OpenChallenge starts an attempt at challenge id, abandoning any attempt in progress.
func (c *Controller) OpenChallenge(id int) (ActiveView, error) {
	var view ActiveView
	err := c.do(func(b *batch) error {
		ch, err := c.session.CanOpen(id)
		if err != nil {
			return err
		}
		st, err := newAttemptState(ch, c.rng)
		if err != nil {
			return err
		}
		c.abandonLocked()
		c.gen++
		c.active = &attempt{gen: c.gen, challenge: ch, state: st}
		view = c.activeViewLocked()
		b.changed = true
		return nil
	})
	return view, err
}

// CloseChallenge abandons the attempt in progress without resolving it.
func (c *Controller) CloseChallenge() error {
	return c.do(func(b *batch) error {
		if c.active == nil {
			return ErrNoActiveChallenge
		}
		c.abandonLocked()
		b.changed = true
		return nil
	})
}

// Restart replaces the session with a fresh one.
func (c *Controller) Restart() error {
	return c.do(func(b *batch) error {
		c.abandonLocked()
		c.session = NewSession(c.catalog)
		b.changed = true
		return nil
	})
}

func (c *Controller) abandonLocked() {
	if c.active == nil {
		return
	}
	c.active.tasks.stopAll()
	c.active = nil
}

// resolveLocked ends the active attempt and feeds its result to the session.
func (c *Controller) resolveLocked(b *batch, success bool) (Outcome, error) {
	a := c.active
	a.tasks.stopAll()
	c.active = nil
	out, err := c.session.Resolve(a.challenge.ID, success)
	if err != nil {
		return Outcome{}, err
	}
	b.add(EventOutcome, out)
	return out, nil
}

// activeState returns the attempt state of the open challenge when it is of type T.
func activeState[T attemptState](c *Controller) (T, error) {
	var zero T
	if c.active == nil {
		return zero, ErrNoActiveChallenge
	}
	st, ok := c.active.state.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is a %s challenge", ErrWrongKind, c.active.challenge.Title, c.active.challenge.Kind())
	}
	return st, nil
}

// schedule runs fn after d unless the attempt has been superseded by then.
func (c *Controller) schedule(a *attempt, d time.Duration, fn func(b *batch)) {
	gen := a.gen
	a.tasks.add(c.clock.AfterFunc(d, func() {
		_ = c.do(func(b *batch) error {
			if c.active == nil || c.active.gen != gen {
				return nil
			}
			fn(b)
			return nil
		})
	}))
}

// SubmitQuiz answers the open quiz. A nil selection is a wrong answer.
func (c *Controller) SubmitQuiz(selected *int) (Outcome, error) {
	return submitAs(c, func(*quizState) (Answer, error) {
		return QuizAnswer{Selected: selected}, nil
	})
}

// StartMemory shows the sequence, hides it after the display time and then opens
// recall. Starting again restarts the display and clears the selection.
func (c *Controller) StartMemory() error {
	return c.do(func(b *batch) error {
		st, err := activeState[*memoryState](c)
		if err != nil {
			return err
		}
		a := c.active
		a.tasks.stopAll()
		c.gen++
		a.gen = c.gen
		st.stage = StageShowing
		st.selection = nil
		id := a.challenge.ID
		c.schedule(a, c.timing.MemoryDisplay, func(b *batch) {
			st.stage = StageHiding
			b.add(EventMemoryHidden, TimerTick{ChallengeID: id, Stage: StageHiding})
		})
		c.schedule(a, c.timing.MemoryDisplay+c.timing.MemoryFade, func(b *batch) {
			st.stage = StageRecall
			b.add(EventMemoryRecall, TimerTick{ChallengeID: id, Stage: StageRecall})
		})
		b.changed = true
		return nil
	})
}

// SelectMemorySymbol appends a symbol to the recall selection.
func (c *Controller) SelectMemorySymbol(symbol string) error {
	return c.do(func(b *batch) error {
		st, err := activeState[*memoryState](c)
		if err != nil {
			return err
		}
		if err := st.selectSymbol(symbol); err != nil {
			return err
		}
		b.changed = true
		return nil
	})
}

// SubmitMemory judges the recall selection.
func (c *Controller) SubmitMemory() (Outcome, error) {
	return submitAs(c, func(st *memoryState) (Answer, error) {
		if st.stage != StageRecall {
			return nil, ErrNotReady
		}
		return MemoryAnswer{Selection: st.selection}, nil
	})
}

// StartSpeed starts the countdown and shows the first question.
func (c *Controller) StartSpeed() error {
	return c.do(func(b *batch) error {
		st, err := activeState[*speedState](c)
		if err != nil {
			return err
		}
		if st.stage != StageReady {
			return ErrAlreadyStarted
		}
		st.stage = StageRunning
		b.changed = true
		if st.secondsLeft <= 0 || st.finished() {
			_, err := c.resolveLocked(b, st.speed.Evaluate(SpeedAnswer{Answers: st.answers}))
			return err
		}
		c.scheduleSpeedTick(c.active, st)
		return nil
	})
}

func (c *Controller) scheduleSpeedTick(a *attempt, st *speedState) {
	c.schedule(a, c.timing.SpeedTick, func(b *batch) {
		st.secondsLeft--
		b.add(EventSpeedTick, TimerTick{ChallengeID: a.challenge.ID, Stage: st.stage, SecondsLeft: st.secondsLeft})
		if st.secondsLeft <= 0 {
			_, _ = c.resolveLocked(b, st.speed.Evaluate(SpeedAnswer{Answers: st.answers}))
			return
		}
		c.scheduleSpeedTick(a, st)
	})
}

// AnswerSpeed submits an answer to the current speed question. Answering the last
// question ends the round. The returned outcome is nil while the round continues.
func (c *Controller) AnswerSpeed(answer string) (*Outcome, error) {
	var out *Outcome
	err := c.do(func(b *batch) error {
		st, err := activeState[*speedState](c)
		if err != nil {
			return err
		}
		if st.stage != StageRunning {
			return ErrNotReady
		}
		st.answers = append(st.answers, answer)
		b.changed = true
		if !st.finished() {
			return nil
		}
		o, err := c.resolveLocked(b, st.speed.Evaluate(SpeedAnswer{Answers: st.answers}))
		if err != nil {
			return err
		}
		out = &o
		return nil
	})
	return out, err
}

// StartPattern plays the pattern back. Tile clicks are ignored until playback ends.
func (c *Controller) StartPattern() error {
	return c.do(func(b *batch) error {
		st, err := activeState[*patternState](c)
		if err != nil {
			return err
		}
		if st.stage != StageReady {
			return ErrAlreadyStarted
		}
		a := c.active
		st.stage = StagePlaying
		st.clicks = nil
		id := a.challenge.ID
		for i, tile := range st.pattern.Sequence {
			at := time.Duration(i+1) * c.timing.PatternStep
			c.schedule(a, at, func(b *batch) {
				st.highlight = tile
				b.add(EventPatternHighlight, TimerTick{ChallengeID: id, Stage: StagePlaying, Step: i + 1, Tile: &tile})
			})
			c.schedule(a, at+c.timing.PatternHighlight, func(b *batch) {
				st.highlight = -1
				b.add(EventPatternClear, TimerTick{ChallengeID: id, Stage: StagePlaying, Step: i + 1, Tile: &tile})
			})
		}
		end := time.Duration(len(st.pattern.Sequence)+1) * c.timing.PatternStep
		c.schedule(a, end, func(b *batch) {
			st.stage = StageRepeat
			st.highlight = -1
			b.add(EventPatternReady, TimerTick{ChallengeID: id, Stage: StageRepeat})
		})
		b.changed = true
		return nil
	})
}

// ClickPatternTile records a tile click after playback.
func (c *Controller) ClickPatternTile(tile int) error {
	return c.do(func(b *batch) error {
		st, err := activeState[*patternState](c)
		if err != nil {
			return err
		}
		if st.stage != StageRepeat {
			return ErrNotReady
		}
		if tile < 0 || tile >= st.pattern.TileCount() {
			return fmt.Errorf("%w: tile %d", ErrInvalidInput, tile)
		}
		st.clicks = append(st.clicks, tile)
		b.changed = true
		return nil
	})
}

// SubmitPattern judges the clicked tiles.
func (c *Controller) SubmitPattern() (Outcome, error) {
	return submitAs(c, func(st *patternState) (Answer, error) {
		if st.stage != StageRepeat {
			return nil, ErrNotReady
		}
		return PatternAnswer{Clicks: st.clicks}, nil
	})
}

// RequestHint reveals the next riddle hint. Past the last hint it returns an
// exhausted hint rather than an error.
func (c *Controller) RequestHint() (Hint, error) {
	var h Hint
	err := c.do(func(b *batch) error {
		st, err := activeState[*riddleState](c)
		if err != nil {
			return err
		}
		h = st.nextHint()
		if !h.Exhausted {
			b.changed = true
		}
		return nil
	})
	return h, err
}

// SubmitRiddle judges a riddle guess.
func (c *Controller) SubmitRiddle(answer string) (Outcome, error) {
	return submitAs(c, func(*riddleState) (Answer, error) {
		return RiddleAnswer{Text: answer}, nil
	})
}

// PlaceSortingItem drops an item into a category bucket.
func (c *Controller) PlaceSortingItem(item, category string) error {
	return c.do(func(b *batch) error {
		st, err := activeState[*sortingState](c)
		if err != nil {
			return err
		}
		if err := st.place(item, category); err != nil {
			return err
		}
		b.changed = true
		return nil
	})
}

// SubmitSorting judges the current placements.
func (c *Controller) SubmitSorting() (Outcome, error) {
	return submitAs(c, func(st *sortingState) (Answer, error) {
		return SortingAnswer{Placements: st.placements}, nil
	})
}

// submitAs evaluates the open challenge, whose attempt state must be of type T,
// with the answer built from that state and resolves the attempt.
func submitAs[T attemptState](c *Controller, build func(T) (Answer, error)) (Outcome, error) {
	var out Outcome
	err := c.do(func(b *batch) error {
		st, err := activeState[T](c)
		if err != nil {
			return err
		}
		ans, err := build(st)
		if err != nil {
			return err
		}
		out, err = c.resolveLocked(b, c.active.challenge.Evaluate(ans))
		return err
	})
	return out, err
}
