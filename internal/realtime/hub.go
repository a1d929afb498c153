package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"AgroPulse/internal/domain/models"
	"AgroPulse/internal/domain/repository"
	"AgroPulse/pkg/logger"
)

// Hub maintains the set of open WebSocket connections and fans market
// events out to all of them. Delivery is best effort, at most once per
// open connection; events generated while a client is away are lost to
// that client.
type Hub struct {
	log     *logger.Logger
	metrics repository.Metrics
	mirror  repository.EventSink

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// Option configures Hub.
type Option func(*Hub)

// WithMirror attaches a sink that receives a copy of every broadcast
// event, e.g. a message bus pipeline.
func WithMirror(sink repository.EventSink) Option {
	return func(h *Hub) {
		h.mirror = sink
	}
}

func NewHub(log *logger.Logger, metrics repository.Metrics, opts ...Option) *Hub {
	h := &Hub{
		log:     log,
		metrics: metrics,
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Broadcast serializes the event once and queues it for every open
// connection. A client whose outbound queue is full has the frame
// dropped rather than blocking the generators.
func (h *Hub) Broadcast(e models.MarketEvent) {
	frame, err := json.Marshal(e)
	if err != nil {
		h.metrics.RecordError("event_marshal")
		h.log.Error("marshal event", logger.Error(err), logger.String("type", string(e.Type)))
		return
	}

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.metrics.RecordDroppedSend()
		}
	}
	h.mu.RUnlock()

	h.metrics.RecordEventBroadcast(string(e.Type))
	if h.mirror != nil {
		if err := h.mirror.Process(context.Background(), e); err != nil {
			h.metrics.RecordError("event_mirror")
			h.log.Warn("mirror event", logger.Error(err))
		}
	}
}

// Clients reports the number of currently open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.RecordClients(n)
	h.log.Debug("ws client connected", logger.Int("clients", n))
}

// unregister removes a connection and closes its queue. Safe to call
// more than once for the same client.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(c.send)
	h.metrics.RecordClients(n)
	h.log.Debug("ws client disconnected", logger.Int("clients", n))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.metrics.RecordError("ws_upgrade")
		return err
	}

	cl := newClient(h, conn)
	h.register(cl)
	go cl.writePump()
	go cl.readPump()
	return nil
}
