package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/wizard-trials/internal/identity"
	"github.com/ashureev/wizard-trials/internal/lobby"
)

type wireEnvelope struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) (*httptest.Server, *lobby.Lobby, *Hub) {
	t.Helper()
	hub := NewHub(16)
	lb := lobby.New(nil, lobby.WithEventSink(hub.Publish), lobby.WithEvictHook(hub.Drop))
	h := NewWebSocketHandler(lb, hub, "", true, time.Second)

	withIdentity := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := identity.WithPlayer(r.Context(), testKey.PlayerID, r.URL.Query().Get("tab_id"))
		h.ServeHTTP(w, r.WithContext(ctx))
	})
	srv := httptest.NewServer(withIdentity)
	t.Cleanup(func() {
		srv.Close()
		lb.Close()
	})
	return srv, lb, hub
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game?tab_id=" + testKey.TabID + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wireEnvelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return env
}

func send(t *testing.T, conn *websocket.Conn, msgType string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"`+msgType+`"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers(testKey) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, got %d", n, hub.Subscribers(testKey))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketSnapshotThenEvents(t *testing.T) {
	srv, lb, hub := newTestServer(t)
	conn := dial(t, srv, "")

	env := readEnvelope(t, conn)
	if env.Type != EventSync || env.Seq != 0 {
		t.Fatalf("expected initial sync at seq 0, got %+v", env)
	}
	if !strings.Contains(string(env.Payload), `"phase":"not_started"`) {
		t.Errorf("unexpected snapshot payload: %s", env.Payload)
	}

	waitForSubscribers(t, hub, 1)
	ctrl, ok := lb.Lookup(testKey)
	if !ok {
		t.Fatal("expected the connection to create the game")
	}
	if err := ctrl.SelectHouse("gryffindor"); err != nil {
		t.Fatalf("SelectHouse failed: %v", err)
	}

	env = readEnvelope(t, conn)
	if env.Type != "state" || env.Seq != 1 {
		t.Fatalf("expected state event seq 1, got %+v", env)
	}
	if !strings.Contains(string(env.Payload), `"house":"gryffindor"`) {
		t.Errorf("expected house in payload, got %s", env.Payload)
	}
}

func TestWebSocketPingAndSync(t *testing.T) {
	srv, _, _ := newTestServer(t)
	conn := dial(t, srv, "")
	readEnvelope(t, conn)

	send(t, conn, "ping")
	if env := readEnvelope(t, conn); env.Type != "pong" {
		t.Errorf("expected pong, got %+v", env)
	}

	send(t, conn, "sync")
	if env := readEnvelope(t, conn); env.Type != EventSync {
		t.Errorf("expected sync, got %+v", env)
	}
}

func TestWebSocketReplaysAfterReconnect(t *testing.T) {
	srv, lb, _ := newTestServer(t)
	ctrl := lb.Game(testKey, "wizard-1")
	if err := ctrl.SelectHouse("hufflepuff"); err != nil {
		t.Fatalf("SelectHouse failed: %v", err)
	}
	if _, err := ctrl.OpenChallenge(1); err != nil {
		t.Fatalf("OpenChallenge failed: %v", err)
	}

	conn := dial(t, srv, "&after=1")

	env := readEnvelope(t, conn)
	if env.Type != "state" || env.Seq != 2 {
		t.Fatalf("expected replayed state seq 2, got %+v", env)
	}
	if !strings.Contains(string(env.Payload), `"phase":"challenge_in_progress"`) {
		t.Errorf("expected in-progress state, got %s", env.Payload)
	}
}
