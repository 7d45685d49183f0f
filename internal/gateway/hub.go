package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/golfdraft/golfdraft/internal/events"
)

// Hub maintains the set of live websocket connections and fans draft events
// out to all of them. A single tournament runs per process, so every client
// sees every event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run processes registrations and broadcasts until ctx is done. It also
// subscribes to the event bus so every published event reaches the clients.
func (h *Hub) Run(ctx context.Context, bus *events.Bus) {
	ch, cancel := bus.Subscribe(256)
	defer cancel()

	log.Info().Msg("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("websocket hub shutting down")
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Debug().Str("client_id", client.id).Msg("websocket client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Debug().Str("client_id", client.id).Msg("websocket client unregistered")

		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Msg("marshal event for broadcast")
				continue
			}
			h.send(data)

		case data := <-h.broadcast:
			h.send(data)
		}
	}
}

func (h *Hub) send(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Warn().Str("client_id", client.id).Msg("client buffer full; dropping event")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
