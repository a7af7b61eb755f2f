package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/steveyegge/bizzy/internal/engine"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(&Config{
		Port:   0,
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Stop(); err != nil {
			t.Errorf("Failed to stop server: %v", err)
		}
	})
	return server
}

func dialTestServer(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func waitForClients(t *testing.T, server *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if server.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", server.ClientCount(), want)
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	return event
}

func TestServerStartStop(t *testing.T) {
	server := startTestServer(t)
	if server.Addr() == "" {
		t.Fatal("Server address is empty")
	}
}

func TestEventBroadcast(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestServer(t, ctx, server)
	waitForClients(t, server, 1)

	payload, _ := json.Marshal(engine.Outcome{Action: engine.ActionCreated, IssueID: "bz-1", CardNumber: 7})
	server.Broadcast(Event{Type: EventCardCreated, Data: payload})

	event := readEvent(t, ctx, conn)
	if event.Type != EventCardCreated {
		t.Errorf("event type = %s, want %s", event.Type, EventCardCreated)
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp not stamped before broadcast")
	}

	var outcome engine.Outcome
	if err := json.Unmarshal(event.Data, &outcome); err != nil {
		t.Fatalf("Failed to unmarshal outcome: %v", err)
	}
	if outcome.IssueID != "bz-1" || outcome.CardNumber != 7 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	server := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := dialTestServer(t, ctx, server)
	second := dialTestServer(t, ctx, server)
	waitForClients(t, server, 2)

	server.Broadcast(Event{Type: EventSyncStarted})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, ctx, conn)
		if event.Type != EventSyncStarted {
			t.Errorf("event type = %s, want %s", event.Type, EventSyncStarted)
		}
	}
}

func TestHandlerEventSequence(t *testing.T) {
	server := startTestServer(t)
	handler := NewHandler(server, log.New(os.Stderr, "[test-handler] ", log.LstdFlags))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialTestServer(t, ctx, server)
	waitForClients(t, server, 1)

	handler.OnSyncStarted(true, false)
	handler.OnOutcome(engine.Outcome{Action: engine.ActionCreated, IssueID: "bz-1", CardNumber: 7})
	handler.OnOutcome(engine.Outcome{Action: engine.ActionUpdated, IssueID: "bz-2", CardNumber: 3})
	handler.OnOutcome(engine.Outcome{Action: engine.ActionSkipped, IssueID: "bz-3", Reason: "unchanged"})
	handler.OnOutcome(engine.Outcome{Action: engine.ActionError, IssueID: "bz-4", Error: "boom"})
	handler.OnSyncComplete(&engine.Result{
		Created: 1,
		Updated: 1,
		Skipped: 1,
		Errors:  []engine.Outcome{{Action: engine.ActionError, IssueID: "bz-4"}},
	}, 2*time.Second)

	wantTypes := []EventType{
		EventSyncStarted,
		EventCardCreated,
		EventCardUpdated,
		EventCardSkipped,
		EventSyncError,
		EventSyncComplete,
	}
	var last Event
	for _, want := range wantTypes {
		event := readEvent(t, ctx, conn)
		if event.Type != want {
			t.Fatalf("event type = %s, want %s", event.Type, want)
		}
		last = event
	}

	var complete SyncCompleteData
	if err := json.Unmarshal(last.Data, &complete); err != nil {
		t.Fatalf("Failed to unmarshal sync complete data: %v", err)
	}
	if complete.Created != 1 || complete.Updated != 1 || complete.Skipped != 1 || complete.Errors != 1 {
		t.Errorf("sync complete tallies = %+v", complete)
	}
	if complete.Duration != 2*time.Second {
		t.Errorf("duration = %v, want 2s", complete.Duration)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := startTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("Failed to GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
	if health.Clients != 0 {
		t.Errorf("clients = %d, want 0", health.Clients)
	}
}
