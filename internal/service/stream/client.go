package stream

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"AgroPulse/internal/domain/models"
	"AgroPulse/pkg/logger"
)

// Handler receives decoded market events in arrival order.
type Handler func(models.MarketEvent)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateOpen
)

const defaultReconnectDelay = 3 * time.Second

// Subscriber maintains one logical connection to a market event
// broadcaster. It reconnects after a fixed delay on any connection
// failure and dispatches each frame synchronously to all registered
// handlers. Malformed frames are dropped without notifying handlers.
type Subscriber struct {
	url            string
	reconnectDelay time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	state     connState
	conn      *websocket.Conn
	reconnect *time.Timer
	closed    bool
	dialCtx   context.Context
	handlers  map[int]Handler
	nextID    int
}

// SubscriberOption configures Subscriber.
type SubscriberOption func(*Subscriber)

// WithReconnectDelay overrides the fixed delay before a reconnect
// attempt.
func WithReconnectDelay(d time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if d > 0 {
			s.reconnectDelay = d
		}
	}
}

func NewSubscriber(url string, log *logger.Logger, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:            url,
		reconnectDelay: defaultReconnectDelay,
		log:            log,
		handlers:       make(map[int]Handler),
		dialCtx:        context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials the broadcaster. Calling it while a connection is open
// or in progress is a no-op. A dial failure schedules a reconnect.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.state != stateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = stateConnecting
	s.dialCtx = ctx
	s.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = stateDisconnected
		s.scheduleReconnectLocked()
		s.log.Warn("stream connect failed", logger.Error(err), logger.String("url", s.url))
		return err
	}
	if s.closed {
		conn.Close()
		s.state = stateDisconnected
		return nil
	}

	s.conn = conn
	s.state = stateOpen
	// an open connection cancels any pending reconnect
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	s.log.Info("stream connected", logger.String("url", s.url))

	go s.readLoop(conn)
	return nil
}

// Subscribe registers a handler and returns its unsubscribe function.
// Handlers are invoked synchronously in registration order.
func (s *Subscriber) Subscribe(h Handler) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Disconnect closes the connection, cancels any pending reconnect, and
// drops every registered handler. The subscriber cannot be reused
// afterwards.
func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.handlers = make(map[int]Handler)
	s.state = stateDisconnected
}

// Connected reports whether the connection is currently open.
func (s *Subscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateOpen
}

func (s *Subscriber) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(conn)
			return
		}

		var e models.MarketEvent
		if err := json.Unmarshal(frame, &e); err != nil || !e.Valid() {
			// malformed or unknown frame: drop silently
			continue
		}
		s.dispatch(e)
	}
}

func (s *Subscriber) dispatch(e models.MarketEvent) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hs := make([]Handler, len(ids))
	for i, id := range ids {
		hs[i] = s.handlers[id]
	}
	s.mu.Unlock()

	for _, h := range hs {
		h(e)
	}
}

func (s *Subscriber) handleClose(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		// a newer connection already replaced this one
		return
	}
	s.conn = nil
	s.state = stateDisconnected
	if !s.closed {
		s.scheduleReconnectLocked()
	}
}

// scheduleReconnectLocked arms the reconnect timer unless one is
// already pending. Callers must hold s.mu.
func (s *Subscriber) scheduleReconnectLocked() {
	if s.reconnect != nil || s.closed {
		return
	}
	s.reconnect = time.AfterFunc(s.reconnectDelay, func() {
		s.mu.Lock()
		s.reconnect = nil
		ctx := s.dialCtx
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		_ = s.Connect(ctx)
	})
}
