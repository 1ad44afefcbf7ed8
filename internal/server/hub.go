package server

import (
	"context"
	"sync"

	"TradeTerminal/internal/collector"
	"TradeTerminal/internal/logger"

	"go.uber.org/zap"
)

// Message types pushed to websocket clients.
const (
	MessageInitial = "INITIAL"
	MessageUpdate  = "UPDATE"
)

// Message is the websocket envelope.
type Message struct {
	Type     string              `json:"type"`
	Snapshot *collector.Snapshot `json:"snapshot"`
}

// Hub fans dashboard snapshots out to websocket clients and remembers the
// latest one for new connections.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan *collector.Snapshot
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	latest  *collector.Snapshot
	nClient int
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *collector.Snapshot, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount()
			if snap := h.Latest(); snap != nil {
				c.send <- Message{Type: MessageInitial, Snapshot: snap}
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case snap := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- Message{Type: MessageUpdate, Snapshot: snap}:
				default:
					// slow consumer
					logger.Warn("dropping slow websocket client")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount()
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.nClient = len(h.clients)
	h.mu.Unlock()
}

// Publish stores snap as the latest snapshot and queues it for every client.
// It never blocks; when the queue is full the update only reaches new clients.
func (h *Hub) Publish(snap *collector.Snapshot) {
	h.mu.Lock()
	h.latest = snap
	h.mu.Unlock()

	select {
	case h.broadcast <- snap:
	default:
		logger.Warn("websocket broadcast queue full", zap.String("snapshot", snap.ID))
	}
}

// Latest returns the most recently published snapshot, or nil.
func (h *Hub) Latest() *collector.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// ClientCount is the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.nClient
}

// join registers c unless the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
