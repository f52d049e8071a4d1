package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event types pushed to connected admin dashboards
const (
	EventTypeConnected         = "connected"
	EventTypeWithdrawalCreated = "withdrawal_created"
	EventTypeWithdrawalUpdated = "withdrawal_updated"
	EventTypeContactSubmitted  = "contact_submitted"
)

// Event is a message sent over WebSocket
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	AdminID string
	Conn    *websocket.Conn
}

// Hub maintains the set of connected admin dashboards and broadcasts
// events to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 16),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if err := client.Conn.WriteJSON(event); err != nil {
					log.Printf("WebSocket write to admin %s failed: %v", client.AdminID, err)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues an event for every connected admin. Safe to call from
// any goroutine; drops the event if the hub is saturated so request
// handlers never block on slow dashboards.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("WebSocket hub saturated, dropping %s event", event.Type)
	}
}
