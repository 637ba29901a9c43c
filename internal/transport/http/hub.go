package http

import (
	"sync"

	"github.com/rs/zerolog"

	"live-quiz-service/internal/domain"
)

// Hub routes controller events to connected websocket clients by identity.
// Notify never blocks: a client whose buffer is full loses the event.
type Hub struct {
	log    zerolog.Logger
	buffer int

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	identity string
	send     chan domain.Event
	done     chan struct{}
	once     sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		log:     log.With().Str("component", "hub").Logger(),
		buffer:  buffer,
		clients: make(map[string]*client),
	}
}

func (h *Hub) register(identity string) *client {
	c := &client{
		identity: identity,
		send:     make(chan domain.Event, h.buffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[identity] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.identity]; ok && cur == c {
		delete(h.clients, c.identity)
	}
	h.mu.Unlock()
	c.close()
}

// Notify implements app.Notifier.
func (h *Hub) Notify(identity string, ev domain.Event) {
	h.mu.RLock()
	c, ok := h.clients[identity]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		h.log.Warn().Str("identity", identity).Str("event", string(ev.Type)).Msg("client buffer full, dropping event")
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
