// Package lobby keeps the live game of every player tab, evicts idle ones and
// records finished runs.
package lobby

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/wizard-trials/internal/domain"
	"github.com/ashureev/wizard-trials/internal/game"
)

// Key identifies one game: a player's browser tab.
type Key struct {
	PlayerID string
	TabID    string
}

func (k Key) String() string {
	return k.PlayerID + ":" + k.TabID
}

// RunRecorder persists finished runs. store.Repository satisfies it.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *domain.Run) error
}

// EventSink receives every game event with the key of the game that produced it.
type EventSink func(key Key, ev game.Event)

// EvictHook is called after a game is evicted, with the Lobby locked. It must not
// call back into the Lobby.
type EvictHook func(key Key)

type table struct {
	key        Key
	playerName string
	ctrl       *game.Controller

	// guarded by Lobby.mu
	lastActive time.Time

	// touched only from the controller's listener, which is serialized
	recorded bool
}

// Lobby is safe for concurrent use.
type Lobby struct {
	mu     sync.Mutex
	tables map[Key]*table

	recorder      RunRecorder
	recordTimeout time.Duration
	gameOpts      []game.Option
	sink          EventSink
	onEvict       EvictHook
	now           func() time.Time

	recording sync.WaitGroup
}

// Option configures a Lobby.
type Option func(*Lobby)

// WithGameOptions passes options to every new Controller.
func WithGameOptions(opts ...game.Option) Option {
	return func(l *Lobby) { l.gameOpts = append(l.gameOpts, opts...) }
}

// WithRecordTimeout bounds how long recording a finished run may take.
func WithRecordTimeout(d time.Duration) Option {
	return func(l *Lobby) { l.recordTimeout = d }
}

// WithEventSink forwards game events, e.g. to connected WebSocket clients.
func WithEventSink(sink EventSink) Option {
	return func(l *Lobby) { l.sink = sink }
}

// WithEvictHook registers a callback for evicted games.
func WithEvictHook(hook EvictHook) Option {
	return func(l *Lobby) { l.onEvict = hook }
}

// WithNow replaces the wall clock used for idle tracking.
func WithNow(now func() time.Time) Option {
	return func(l *Lobby) { l.now = now }
}

// New creates an empty Lobby. recorder may be nil, in which case runs are not kept.
func New(recorder RunRecorder, opts ...Option) *Lobby {
	l := &Lobby{
		tables:        make(map[Key]*table),
		recorder:      recorder,
		recordTimeout: 5 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Game returns the game for key, creating a fresh one on first use. It marks the
// game as active.
func (l *Lobby) Game(key Key, playerName string) *game.Controller {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.tables[key]; ok {
		t.lastActive = l.now()
		return t.ctrl
	}

	t := &table{key: key, playerName: playerName, lastActive: l.now()}
	opts := append([]game.Option{}, l.gameOpts...)
	opts = append(opts, game.WithListener(func(ev game.Event) { l.handleEvent(t, ev) }))
	t.ctrl = game.NewController(opts...)
	l.tables[key] = t

	slog.Info("Game created", "player_id", key.PlayerID, "tab_id", key.TabID)
	return t.ctrl
}

// Lookup returns the game for key without creating one.
func (l *Lobby) Lookup(key Key) (*game.Controller, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tables[key]
	if !ok {
		return nil, false
	}
	return t.ctrl, true
}

// Touch marks the game for key as active.
func (l *Lobby) Touch(key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tables[key]; ok {
		t.lastActive = l.now()
	}
}

// Len returns the number of live games.
func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tables)
}

// Evict ends the game for key and cancels its timers. The evict hook runs before
// the key can be reused, so a replacement game never shares state with the old one.
func (l *Lobby) Evict(key Key) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tables[key]
	if !ok {
		return false
	}
	delete(l.tables, key)
	t.ctrl.Close()
	if l.onEvict != nil {
		l.onEvict(key)
	}
	return true
}

// Sweep evicts games idle for longer than ttl and returns how many were removed.
func (l *Lobby) Sweep(ttl time.Duration) int {
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	var expired []Key
	for key, t := range l.tables {
		if t.lastActive.Before(cutoff) {
			expired = append(expired, key)
		}
	}
	l.mu.Unlock()

	n := 0
	for _, key := range expired {
		if l.Evict(key) {
			slog.Info("Idle game evicted", "player_id", key.PlayerID, "tab_id", key.TabID)
			n++
		}
	}
	return n
}

// StartSweeper runs a background goroutine that evicts idle games every interval
// until ctx is done.
func (l *Lobby) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Idle sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if n := l.Sweep(ttl); n > 0 {
					slog.Info("Idle sweeper cleanup completed", "evicted", n, "remaining", l.Len())
				}
			case <-ctx.Done():
				slog.Info("Idle sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Close evicts every game and waits for pending run records to finish.
func (l *Lobby) Close() {
	l.mu.Lock()
	keys := make([]Key, 0, len(l.tables))
	for key := range l.tables {
		keys = append(keys, key)
	}
	l.mu.Unlock()

	for _, key := range keys {
		l.Evict(key)
	}
	l.recording.Wait()
}

func (l *Lobby) handleEvent(t *table, ev game.Event) {
	if st, ok := ev.Payload.(game.VisibleState); ok && ev.Type == game.EventState {
		l.trackRun(t, st)
	}
	if l.sink != nil {
		l.sink(t.key, ev)
	}
}

// trackRun records the run once when the game reaches a terminal phase and rearms
// after a restart.
func (l *Lobby) trackRun(t *table, st game.VisibleState) {
	terminal := st.Phase == game.PhaseVictory || st.Phase == game.PhaseEliminated
	if !terminal {
		t.recorded = false
		return
	}
	if t.recorded {
		return
	}
	t.recorded = true

	if l.recorder == nil {
		return
	}

	run := &domain.Run{
		RunID:      uuid.NewString(),
		PlayerID:   t.key.PlayerID,
		PlayerName: t.playerName,
		House:      st.House,
		Points:     st.TotalPoints,
		Completed:  len(st.CompletedIDs),
		Outcome:    domain.RunEliminated,
		FinishedAt: l.now(),
	}
	if st.Phase == game.PhaseVictory {
		run.Outcome = domain.RunVictory
		run.Title = st.Title
	}

	l.recording.Add(1)
	go func() {
		defer l.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.recordTimeout)
		defer cancel()
		if err := l.recorder.RecordRun(ctx, run); err != nil {
			slog.Error("Failed to record run", "error", err, "player_id", run.PlayerID, "run_id", run.RunID)
			return
		}
		slog.Info("Run recorded",
			"player_id", run.PlayerID,
			"run_id", run.RunID,
			"outcome", run.Outcome,
			"points", run.Points)
	}()
}
