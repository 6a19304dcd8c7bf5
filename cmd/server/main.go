package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/brasa-pos/api/internal/config"
	"github.com/brasa-pos/api/internal/database"
	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/brasa-pos/api/internal/router"
	"github.com/brasa-pos/api/internal/state"
	"github.com/brasa-pos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	snapshots := database.NewSnapshotStore(pool)
	if err := snapshots.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap snapshot schema: %v", err)
	}

	initial := state.New()
	payload, err := snapshots.LoadLatest(ctx)
	if err != nil {
		log.Fatalf("Failed to load latest snapshot: %v", err)
	}
	if payload != nil {
		if err := json.Unmarshal(payload, &initial); err != nil {
			log.Fatalf("Failed to decode snapshot: %v", err)
		}
		log.Printf("Restored state snapshot with %d orders", len(initial.Orders))
	} else {
		log.Println("No snapshot found, starting with empty state")
	}

	hub := ws.NewHub()
	go hub.Run()

	store := dispatch.NewStore(initial, snapshots, &hubNotifier{hub: hub})

	r := router.New(cfg, store, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}

// hubNotifier forwards order changes to the websocket hub, keyed by the
// prep area that needs to see them.
type hubNotifier struct {
	hub *ws.Hub
}

func (n *hubNotifier) Notify(a dispatch.Action, s state.State) {
	var (
		eventType string
		order     state.Order
		ok        bool
	)

	switch act := a.(type) {
	case dispatch.PlaceOrder:
		eventType = "order.created"
		order, ok = orderBySeq(s, s.OrderSeq)
	case dispatch.UpdateOrderStatus:
		eventType = "order.updated"
		order, ok = s.Orders[act.OrderID]
	case dispatch.AddOrderItems:
		eventType = "order.updated"
		order, ok = s.Orders[act.OrderID]
	case dispatch.MarkItemsSent:
		eventType = "order.updated"
		order, ok = s.Orders[act.OrderID]
	case dispatch.RequestBill:
		eventType = "order.updated"
		order, ok = s.Orders[act.OrderID]
	case dispatch.AssignStaff:
		eventType = "order.updated"
		order, ok = s.Orders[act.OrderID]
	case dispatch.ConfirmPayment:
		eventType = "order.paid"
		order, ok = s.Orders[act.OrderID]
	default:
		return
	}
	if !ok {
		return
	}

	payload, err := json.Marshal(order)
	if err != nil {
		log.Printf("ERROR: failed to marshal order event: %v", err)
		return
	}
	n.hub.BroadcastToArea(order.PrepArea, ws.Event{Type: eventType, Payload: payload})
}

func orderBySeq(s state.State, seq int32) (state.Order, bool) {
	number := fmt.Sprintf("BRS-%03d", seq)
	for _, o := range s.Orders {
		if o.Number == number {
			return o, true
		}
	}
	return state.Order{}, false
}
