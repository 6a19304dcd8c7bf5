package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brasa-pos/api/internal/enum"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, area string) *Client {
	return &Client{
		hub:  hub,
		area: area,
		send: make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, enum.PrepAreaFloor)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.PrepAreaFloor] == nil {
		t.Fatal("area room not created")
	}
	if !hub.rooms[enum.PrepAreaFloor][client] {
		t.Fatal("client not registered in area room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, enum.PrepAreaPickup)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[enum.PrepAreaPickup] != nil {
		t.Fatal("area room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleArea(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	floorClient := mockClient(hub, enum.PrepAreaFloor)
	deliveryClient := mockClient(hub, enum.PrepAreaDelivery)

	// Register both clients
	hub.register <- floorClient
	hub.register <- deliveryClient
	time.Sleep(10 * time.Millisecond)

	// Broadcast to the floor board only
	testPayload := json.RawMessage(`{"number":"BRS-001"}`)
	event := Event{
		Type:    "order.created",
		Payload: testPayload,
	}
	hub.BroadcastToArea(enum.PrepAreaFloor, event)

	// Check the floor client receives the message
	select {
	case msg := <-floorClient.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "order.created" {
			t.Errorf("expected type 'order.created', got '%s'", received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("floor client did not receive broadcast")
	}

	// The delivery board must not see floor traffic
	select {
	case <-deliveryClient.send:
		t.Fatal("delivery client received a floor broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToAllClientsInArea(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, enum.PrepAreaDelivery)
	client2 := mockClient(hub, enum.PrepAreaDelivery)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastToArea(enum.PrepAreaDelivery, Event{
		Type:    "order.updated",
		Payload: json.RawMessage(`{"number":"BRS-002"}`),
	})

	for i, c := range []*Client{client1, client2} {
		select {
		case <-c.send:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client %d did not receive broadcast", i+1)
		}
	}
}

func TestValidArea(t *testing.T) {
	for _, area := range []string{enum.PrepAreaFloor, enum.PrepAreaDelivery, enum.PrepAreaPickup} {
		if !validArea(area) {
			t.Errorf("validArea(%s) = false, want true", area)
		}
	}
	if validArea("DRIVE_THRU") {
		t.Error("validArea accepted an unknown area")
	}
}
