package websocket

import (
	"sync"
	"time"
)

// Hub maintains active WebSocket connections and broadcasts registry events
// to the clients watching a resourceId.
type Hub struct {
	// Registered clients by resourceID
	clients map[string]map[*Client]bool

	// Outbound events
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	done chan struct{}

	mu sync.RWMutex
}

// Message represents a registry event message
type Message struct {
	ResourceID string      `json:"resourceId"`
	Type       string      `json:"type"` // connection_saved, suites_synced, issue_created
	Payload    interface{} `json:"payload"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.resourceID] == nil {
				h.clients[client.resourceID] = make(map[*Client]bool)
			}
			h.clients[client.resourceID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients[message.ResourceID]))
			for client := range h.clients[message.ResourceID] {
				targets = append(targets, client)
			}
			h.mu.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- message:
				default:
					h.remove(client)
				}
			}
		}
	}
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Broadcast sends an event to all clients watching resourceID. Events are
// dropped once the hub has stopped.
func (h *Hub) Broadcast(resourceID string, msgType string, payload interface{}) {
	msg := &Message{
		ResourceID: resourceID,
		Type:       msgType,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Register registers a new client connection
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister unregisters a client connection
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of clients watching resourceID
func (h *Hub) ClientCount(resourceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[resourceID])
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.resourceID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.send)
		if len(clients) == 0 {
			delete(h.clients, client.resourceID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for resourceID, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, resourceID)
	}
}
