// Package live pushes game events to browser tabs over WebSocket.
package live

import (
	"log/slog"
	"sync"

	"github.com/ashureev/wizard-trials/internal/game"
	"github.com/ashureev/wizard-trials/internal/lobby"
)

// Envelope is the wire form of a game event.
type Envelope struct {
	Type    string `json:"type"`
	Seq     uint64 `json:"seq"`
	Payload any    `json:"payload,omitempty"`
}

const subscriberBuffer = 64

type stream struct {
	seq    uint64
	replay *replayBuffer
	subs   map[*Subscription]struct{}
}

// Hub numbers the events of every game, buffers them for replay and fans them out
// to subscribed connections.
type Hub struct {
	mu         sync.Mutex
	streams    map[lobby.Key]*stream
	replaySize int
}

// NewHub creates a hub keeping replaySize events per game.
func NewHub(replaySize int) *Hub {
	return &Hub{
		streams:    make(map[lobby.Key]*stream),
		replaySize: replaySize,
	}
}

func (h *Hub) streamLocked(key lobby.Key) *stream {
	s, ok := h.streams[key]
	if !ok {
		s = &stream{replay: newReplayBuffer(h.replaySize), subs: make(map[*Subscription]struct{})}
		h.streams[key] = s
	}
	return s
}

// Publish assigns the next seq to ev and delivers it. A subscriber that cannot keep
// up is disconnected; it can reconnect and replay from its last seq.
func (h *Hub) Publish(key lobby.Key, ev game.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.streamLocked(key)
	s.seq++
	env := Envelope{Type: string(ev.Type), Seq: s.seq, Payload: ev.Payload}
	s.replay.push(env)

	for sub := range s.subs {
		select {
		case sub.ch <- env:
		default:
			slog.Warn("Live subscriber too slow, disconnecting", "player_id", key.PlayerID, "tab_id", key.TabID)
			h.removeLocked(s, sub)
		}
	}
}

// Seq returns the last seq published for key.
func (h *Hub) Seq(key lobby.Key) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.streams[key]; ok {
		return s.seq
	}
	return 0
}

// Subscribe registers a new subscriber for key. It also returns the buffered events
// after seq after; complete is false when that backlog has a gap.
func (h *Hub) Subscribe(key lobby.Key, after uint64) (sub *Subscription, backlog []Envelope, complete bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.streamLocked(key)
	sub = &Subscription{hub: h, key: key, ch: make(chan Envelope, subscriberBuffer)}
	s.subs[sub] = struct{}{}

	if after > s.seq {
		return sub, nil, false
	}
	backlog, complete = s.replay.after(after)
	return sub, backlog, complete
}

// Drop disconnects every subscriber of key and forgets its events.
func (h *Hub) Drop(key lobby.Key) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.streams[key]
	if !ok {
		return
	}
	for sub := range s.subs {
		h.removeLocked(s, sub)
	}
	delete(h.streams, key)
}

// Subscribers returns how many connections are attached to key.
func (h *Hub) Subscribers(key lobby.Key) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.streams[key]; ok {
		return len(s.subs)
	}
	return 0
}

func (h *Hub) removeLocked(s *stream, sub *Subscription) {
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
}

// Subscription receives the events of one game.
type Subscription struct {
	hub *Hub
	key lobby.Key
	ch  chan Envelope
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Envelope {
	return s.ch
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if st, ok := s.hub.streams[s.key]; ok {
		s.hub.removeLocked(st, s)
	}
}
