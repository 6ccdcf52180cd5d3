package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event types pushed to the editor
const (
	EventPaint      = "paint"
	EventFitBounds  = "fit-bounds"
	EventContiguity = "contiguity"
	EventPing       = "ping"
)

// PanelEvent is one command or status update for an editor session
type PanelEvent struct {
	SessionID string      `json:"session_id"`
	EventType string      `json:"event_type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// maxPending bounds the events waiting for one slow client
const maxPending = 64

// subscriber queues the events of one client. A paint event replaces any
// paint still queued, so a slow client always ends on the latest borders.
type subscriber struct {
	out      chan PanelEvent
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	pending []PanelEvent
}

func newSubscriber() *subscriber {
	s := &subscriber{
		out:  make(chan PanelEvent),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

// offer queues an event and reports what it displaced, if anything
func (s *subscriber) offer(event PanelEvent) (dropped *PanelEvent) {
	s.mu.Lock()
	if event.EventType == EventPaint {
		kept := s.pending[:0]
		for _, queued := range s.pending {
			if queued.EventType != EventPaint {
				kept = append(kept, queued)
			}
		}
		s.pending = kept
	}
	if len(s.pending) >= maxPending {
		if event.EventType != EventPaint {
			s.mu.Unlock()
			return &event
		}
		oldest := s.pending[0]
		dropped = &oldest
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return dropped
}

// pump hands queued events to the client in order until stopped
func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		event := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.out <- event:
		case <-s.done:
			return
		}
	}
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// SSEHub fans panel events out to the browsers listening on a session
type SSEHub struct {
	clients   map[string]map[*subscriber]bool
	clientsMu sync.RWMutex
	closed    bool
	closeOnce sync.Once
	keepAlive time.Duration
}

// NewSSEHub creates a new SSE hub
func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients:   make(map[string]map[*subscriber]bool),
		keepAlive: 30 * time.Second,
	}
}

// Subscribe registers a listener for a session. The returned function
// unregisters it; the channel is closed once the listener is gone.
func (h *SSEHub) Subscribe(sessionID string) (<-chan PanelEvent, func()) {
	sub := newSubscriber()

	h.clientsMu.Lock()
	if h.closed {
		h.clientsMu.Unlock()
		sub.stop()
		return sub.out, func() {}
	}
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*subscriber]bool)
	}
	h.clients[sessionID][sub] = true
	log.Printf("[SSE] Client registered for session %s (total clients: %d)",
		sessionID, len(h.clients[sessionID]))
	h.clientsMu.Unlock()

	return sub.out, func() {
		h.clientsMu.Lock()
		if clients, exists := h.clients[sessionID]; exists {
			delete(clients, sub)
			if len(clients) == 0 {
				delete(h.clients, sessionID)
			}
		}
		h.clientsMu.Unlock()
		sub.stop()
	}
}

// Broadcast queues an event for every client of its session
func (h *SSEHub) Broadcast(event PanelEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if h.closed {
		return
	}
	for sub := range h.clients[event.SessionID] {
		if dropped := sub.offer(event); dropped != nil {
			log.Printf("[SSE] Client queue full for session %s, dropping %s event",
				event.SessionID, dropped.EventType)
		}
	}
}

// Close disconnects every client and ignores later broadcasts
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() {
		h.clientsMu.Lock()
		defer h.clientsMu.Unlock()
		h.closed = true
		for _, clients := range h.clients {
			for sub := range clients {
				sub.stop()
			}
		}
		h.clients = make(map[string]map[*subscriber]bool)
	})
}

// HandleSSE streams the events of the session named by the :id path param
func (h *SSEHub) HandleSSE(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, unsubscribe := h.Subscribe(sessionID)
	defer unsubscribe()

	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event.Data)
			if err != nil {
				log.Printf("[SSE] Failed to marshal %s event: %v", event.EventType, err)
				return true
			}
			c.SSEvent(event.EventType, string(payload))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent(EventPing, `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}
