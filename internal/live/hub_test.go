package live

import (
	"testing"

	"github.com/ashureev/wizard-trials/internal/game"
	"github.com/ashureev/wizard-trials/internal/lobby"
)

var testKey = lobby.Key{PlayerID: "p1", TabID: "t1"}

func publishN(h *Hub, key lobby.Key, n int) {
	for i := 0; i < n; i++ {
		h.Publish(key, game.Event{Type: game.EventSpeedTick, Payload: game.TimerTick{SecondsLeft: i}})
	}
}

func TestHubSequencesAndFansOut(t *testing.T) {
	h := NewHub(8)
	a, _, _ := h.Subscribe(testKey, 0)
	b, _, _ := h.Subscribe(testKey, 0)
	other, _, _ := h.Subscribe(lobby.Key{PlayerID: "p1", TabID: "t2"}, 0)

	publishN(h, testKey, 2)

	for _, sub := range []*Subscription{a, b} {
		for want := uint64(1); want <= 2; want++ {
			env := <-sub.Events()
			if env.Seq != want || env.Type != string(game.EventSpeedTick) {
				t.Errorf("Expected seq %d speed_tick, got %+v", want, env)
			}
		}
	}
	select {
	case env := <-other.Events():
		t.Errorf("Other tab received %+v", env)
	default:
	}
	if h.Seq(testKey) != 2 {
		t.Errorf("Expected seq 2, got %d", h.Seq(testKey))
	}
}

func TestHubReplay(t *testing.T) {
	h := NewHub(3)
	publishN(h, testKey, 5)

	_, backlog, complete := h.Subscribe(testKey, 3)
	if !complete {
		t.Fatal("Expected complete replay from seq 3")
	}
	if len(backlog) != 2 || backlog[0].Seq != 4 || backlog[1].Seq != 5 {
		t.Errorf("Expected seqs 4 and 5, got %+v", backlog)
	}

	_, backlog, complete = h.Subscribe(testKey, 1)
	if complete || backlog != nil {
		t.Errorf("Expected a gap when seq 2 was evicted, got %+v", backlog)
	}

	_, backlog, complete = h.Subscribe(testKey, 5)
	if !complete || len(backlog) != 0 {
		t.Errorf("Expected nothing to replay when up to date, got %+v", backlog)
	}

	_, _, complete = h.Subscribe(testKey, 99)
	if complete {
		t.Error("Expected a seq from the future to require a snapshot")
	}
}

func TestHubDisconnectsSlowSubscriber(t *testing.T) {
	h := NewHub(8)
	sub, _, _ := h.Subscribe(testKey, 0)

	publishN(h, testKey, subscriberBuffer+1)

	n := 0
	for range sub.Events() {
		n++
	}
	if n != subscriberBuffer {
		t.Errorf("Expected %d buffered events before disconnect, got %d", subscriberBuffer, n)
	}
	if h.Subscribers(testKey) != 0 {
		t.Errorf("Expected slow subscriber removed, got %d", h.Subscribers(testKey))
	}
}

func TestHubDropAndClose(t *testing.T) {
	h := NewHub(8)
	sub, _, _ := h.Subscribe(testKey, 0)
	publishN(h, testKey, 1)

	h.Drop(testKey)
	sub.Close()

	<-sub.Events()
	if _, ok := <-sub.Events(); ok {
		t.Error("Expected channel closed after Drop")
	}
	if h.Seq(testKey) != 0 {
		t.Errorf("Expected stream forgotten, seq %d", h.Seq(testKey))
	}
}
