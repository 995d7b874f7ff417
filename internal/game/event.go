package game

// EventType names an event delivered to a Controller's listener.
type EventType string

const (
	EventState            EventType = "state"
	EventOutcome          EventType = "outcome"
	EventMemoryHidden     EventType = "memory_hidden"
	EventMemoryRecall     EventType = "memory_recall"
	EventSpeedTick        EventType = "speed_tick"
	EventPatternHighlight EventType = "pattern_highlight"
	EventPatternClear     EventType = "pattern_clear"
	EventPatternReady     EventType = "pattern_ready"
)

// Event is a change notification. Payload is a VisibleState for EventState, an
// Outcome for EventOutcome, and a TimerTick for the timer events.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// TimerTick is the payload of timer-driven events.
type TimerTick struct {
	ChallengeID int   `json:"challenge_id"`
	Stage       Stage `json:"stage"`
	SecondsLeft int   `json:"seconds_left"`
	Step        int   `json:"step,omitempty"`
	Tile        *int  `json:"tile,omitempty"`
}

// Listener receives events in the order they were produced. It is called without the
// Controller's state lock held but must not call back into the same Controller.
type Listener func(Event)

// batch collects events produced under the lock for delivery after it is released.
type batch struct {
	events  []Event
	changed bool
}

func (b *batch) add(t EventType, payload any) {
	b.events = append(b.events, Event{Type: t, Payload: payload})
	b.changed = true
}

func (b *batch) flush(l Listener) {
	if l == nil {
		return
	}
	for _, ev := range b.events {
		l(ev)
	}
}
