package notify

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aquasense/aquasense-core/internal/infrastructure/config"
	"github.com/aquasense/aquasense-core/internal/infrastructure/logging"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	cfg := config.WebSocketConfig{
		MaxMessageSize: 4096,
		PingInterval:   30,
		PongTimeout:    10,
	}
	return NewHub(cfg, logging.Default())
}

// dial connects a test client to the hub over a real WebSocket.
func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNotifyDataChanged_ReachesClient(t *testing.T) {
	hub := testHub(t)
	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	hub.NotifyDataChanged()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshalling frame: %v", err)
	}
	if msg.Type != "event" || msg.Event != EventDataChanged {
		t.Errorf("frame = %+v, want event/%s", msg, EventDataChanged)
	}
}

func TestNotifyDataChanged_NoClients(t *testing.T) {
	hub := testHub(t)

	// Absence of subscribers is not an error.
	hub.NotifyDataChanged()

	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
}

func TestBroadcast_SkipsSlowClient(t *testing.T) {
	hub := testHub(t)

	// A client whose buffer is already full must be skipped, not
	// block the broadcast.
	slow := &Client{id: "slow", hub: hub, send: make(chan []byte)}
	hub.register(slow)

	done := make(chan struct{})
	go func() {
		hub.NotifyDataChanged()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestTrySend_ClosedChannel(t *testing.T) {
	c := &Client{id: "gone", send: make(chan []byte, 1)}
	close(c.send)

	// Must absorb the send-on-closed-channel panic.
	c.trySend([]byte("x"))
}

func TestRun_ClosesClientsOnCancel(t *testing.T) {
	hub := testHub(t)
	conn := dial(t, hub)
	waitForClients(t, hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d after shutdown, want 0", hub.ClientCount())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
