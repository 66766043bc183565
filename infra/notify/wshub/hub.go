// Package wshub delivers notification events to browser clients over
// WebSocket. Each connection may join rooms; incident dispatches target the
// room of the dispatched station while broadcasts reach every connection.
package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rescuegrid/firedispatch/core/notify"
	"github.com/rescuegrid/firedispatch/infra/logger"
)

const sendBuffer = 64

// client is one connected WebSocket session. Writes go through the send
// channel; a full channel marks the client slow and disconnects it.
type client struct {
	userID string
	send   chan []byte
	rooms  map[string]bool
}

// Hub tracks connections and their room memberships. It implements
// notify.Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	rooms   map[string]map[*client]bool
	closed  bool
	log     logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		rooms:   make(map[string]map[*client]bool),
		log:     log,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.send)
		return
	}
	h.clients[c] = true
	for room := range c.rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*client]bool)
		}
		h.rooms[room][c] = true
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

// deliver enqueues data on the client. Slow clients are dropped instead of
// blocking the dispatch path.
func (h *Hub) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warnf("websocket client %s too slow, dropping connection", c.userID)
		go h.unregister(c)
	}
}

// Broadcast sends the event to every connected client.
func (h *Hub) Broadcast(_ context.Context, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.deliver(c, data)
	}
	return nil
}

// ToStation sends the event to clients joined to the station's room.
func (h *Hub) ToStation(_ context.Context, stationID string, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	room := notify.StationRoom(stationID)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		h.deliver(c, data)
	}
	return nil
}

// Close disconnects all clients. Further registrations are rejected.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.rooms = make(map[string]map[*client]bool)
	return nil
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount reports how many clients joined the given room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
