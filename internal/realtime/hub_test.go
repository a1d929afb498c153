package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"AgroPulse/internal/domain/models"
	"AgroPulse/pkg/logger"
)

type countingMetrics struct {
	mu        sync.Mutex
	broadcast map[string]int
	dropped   int
	clients   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{broadcast: make(map[string]int)}
}

func (m *countingMetrics) RecordEventBroadcast(t string) {
	m.mu.Lock()
	m.broadcast[t]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordDroppedSend() {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordClients(n int) {
	m.mu.Lock()
	m.clients = n
	m.mu.Unlock()
}
func (m *countingMetrics) RecordError(string)             {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)  {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func startHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(testLogger(t), newCountingMetrics())
	e := echo.New()
	e.GET("/ws", h.ServeWS)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) models.MarketEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e models.MarketEvent
	if err := json.Unmarshal(frame, &e); err != nil {
		t.Fatalf("unmarshal frame %q: %v", frame, err)
	}
	return e
}

func TestHubBroadcastReachesOpenConnections(t *testing.T) {
	h, srv := startHubServer(t)

	c1 := dial(t, srv)
	defer c1.Close()
	c2 := dial(t, srv)
	waitClients(t, h, 2)

	h.Broadcast(models.NewPriceUpdate("soymeal", 42150, time.Now()))

	for _, conn := range []*websocket.Conn{c1, c2} {
		e := readEvent(t, conn)
		if e.Type != models.EventPriceUpdate || e.Product != "soymeal" || e.PricePerTon != 42150 {
			t.Fatalf("unexpected event %+v", e)
		}
	}

	// After one connection closes, the next event reaches only the
	// remaining one.
	c2.Close()
	waitClients(t, h, 1)

	h.Broadcast(models.NewPriceUpdate("husk", 12100, time.Now()))
	e := readEvent(t, c1)
	if e.Product != "husk" {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestHubBroadcastWithNoClients(t *testing.T) {
	h, _ := startHubServer(t)
	// Must not panic or block.
	h.Broadcast(models.NewPriceUpdate("specialty", 55000, time.Now()))
	if h.Clients() != 0 {
		t.Fatalf("expected no clients")
	}
}

func TestHubIotEventRoundTrip(t *testing.T) {
	h, srv := startHubServer(t)
	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, h, 1)

	m := 9.2
	h.Broadcast(models.NewIotUpdate("dev-1", models.Reading{Moisture: &m}, time.Now()))

	e := readEvent(t, conn)
	if e.Type != models.EventIotUpdate || e.DeviceID != "dev-1" {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.Moisture == nil || *e.Moisture != 9.2 {
		t.Fatalf("moisture not carried: %+v", e)
	}
	if e.Temp != nil || e.WeightKg != nil {
		t.Fatalf("absent fields must stay nil: %+v", e)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.MarketEvent
}

func (s *recordingSink) Process(_ context.Context, e models.MarketEvent) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	return nil
}

func TestHubMirrorsEveryBroadcast(t *testing.T) {
	sink := &recordingSink{}
	h := NewHub(testLogger(t), newCountingMetrics(), WithMirror(sink))

	h.Broadcast(models.NewPriceUpdate("soymeal", 42000, time.Now()))
	h.Broadcast(models.NewPriceUpdate("husk", 12000, time.Now()))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 mirrored events, got %d", len(sink.events))
	}
	if sink.events[1].Product != "husk" {
		t.Fatalf("unexpected mirrored event %+v", sink.events[1])
	}
}
