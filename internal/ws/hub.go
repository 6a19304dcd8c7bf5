package ws

import (
	"encoding/json"
	"sync"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// areaEvent is an internal struct for routing events to one prep area's board
type areaEvent struct {
	Area  string
	Event Event
}

// Hub maintains the set of active board clients and broadcasts messages
// to them, one room per kitchen prep area
type Hub struct {
	// Registered clients by prep area
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *areaEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *areaEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.area] == nil {
				h.rooms[client.area] = make(map[*Client]bool)
			}
			h.rooms[client.area][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.area]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.area)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Area]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			// Send to all clients watching this area's board
			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Area], client)
					if len(h.rooms[event.Area]) == 0 {
						delete(h.rooms, event.Area)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToArea sends an event to all clients watching a prep area's board
// This is the public API for the dispatcher notifier to broadcast events
func (h *Hub) BroadcastToArea(area string, event Event) {
	h.broadcast <- &areaEvent{
		Area:  area,
		Event: event,
	}
}
