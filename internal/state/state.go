// Package state holds the authoritative application snapshot. Values are
// treated as immutable: mutators copy the containers they touch and return
// replacements, they never write through a shared slice or map.
package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Addon is a per-item extra (sauce, condiment) with its own price.
type Addon struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OrderItem is a single line on an order.
type OrderItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int32           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Addons        []Addon         `json:"addons,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	SentToKitchen bool            `json:"sent_to_kitchen"`
	Reward        bool            `json:"reward,omitempty"`
}

// HistoryEntry records one status change. The history log is append-only.
type HistoryEntry struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Role   string    `json:"role"`
}

// Settlement is the proof-of-payment attached when an order is paid.
// Immutable once attached.
type Settlement struct {
	Method         string          `json:"method"`
	Total          decimal.Decimal `json:"total"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due"`
	ExactAmount    bool            `json:"exact_amount"`
	At             time.Time       `json:"at"`
}

// Order is a single customer order. Channel and CreatedAt never change;
// Total is always the recomputed sum over Items; Settlement is non-nil
// exactly when Status is PAID.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	Channel         string          `json:"channel"`
	Status          string          `json:"status"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	TableNumber     string          `json:"table_number,omitempty"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method"`
	History         []HistoryEntry  `json:"history"`
	PrepMinutes     int32           `json:"prep_minutes"`
	CreatedAt       time.Time       `json:"created_at"`
	AssignedCook    string          `json:"assigned_cook,omitempty"`
	AssignedDriver  string          `json:"assigned_driver,omitempty"`
	PrepArea        string          `json:"prep_area"`
	Settlement      *Settlement     `json:"settlement,omitempty"`
	PointsEarned    int64           `json:"points_earned"`
	EstimatedProfit decimal.Decimal `json:"estimated_profit"`
	Version         int64           `json:"version"`
}

// Elapsed is the time since the order was placed, derived at read time.
func (o Order) Elapsed(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// Product is a catalog entry. CostBasis zero means no cost is recorded.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	Stock     int32           `json:"stock"`
}

// Customer is a loyalty ledger entry keyed by phone.
type Customer struct {
	Phone    string      `json:"phone"`
	Name     string      `json:"name"`
	Points   int64       `json:"points"`
	OrderIDs []uuid.UUID `json:"order_ids"`
}

// Reward is redeemable against a customer's point balance.
type Reward struct {
	Name       string    `json:"name"`
	PointsCost int64     `json:"points_cost"`
	ProductID  uuid.UUID `json:"product_id,omitempty"`
}

// LoyaltyProgram defines a points-earning rule and its rewards.
// At most one program is active at a time.
type LoyaltyProgram struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Rule              string          `json:"rule"`
	AmountPerUnit     decimal.Decimal `json:"amount_per_unit"`
	PointsPerUnit     int64           `json:"points_per_unit"`
	PointsPerPurchase int64           `json:"points_per_purchase"`
	Active            bool            `json:"active"`
	Rewards           []Reward        `json:"rewards"`
}

// CashMovement is a manual drawer ingress or egress.
type CashMovement struct {
	Direction   string          `json:"direction"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	At          time.Time       `json:"at"`
}

// CashSession is one drawer-custody period. Once Open is false the
// session is sealed and rejects all further operations.
type CashSession struct {
	ID            uuid.UUID                  `json:"id"`
	Open          bool                       `json:"open"`
	OpeningFloat  decimal.Decimal            `json:"opening_float"`
	SalesByMethod map[string]decimal.Decimal `json:"sales_by_method"`
	TotalSales    decimal.Decimal            `json:"total_sales"`
	TotalProfit   decimal.Decimal            `json:"total_profit"`
	Movements     []CashMovement             `json:"movements"`
	ExpectedCash  decimal.Decimal            `json:"expected_cash"`
	OpenedAt      time.Time                  `json:"opened_at"`
	ClosedAt      time.Time                  `json:"closed_at,omitzero"`
	CountedCash   decimal.Decimal            `json:"counted_cash"`
	Variance      decimal.Decimal            `json:"variance"`
}

// User is a staff account.
type User struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Pin            string    `json:"pin,omitempty"`
	HashedPassword string    `json:"hashed_password"`
	Role           string    `json:"role"`
	Active         bool      `json:"active"`
}

// State is the full application snapshot the dispatcher reduces over.
type State struct {
	Orders         map[uuid.UUID]Order          `json:"orders"`
	Products       map[uuid.UUID]Product        `json:"products"`
	Customers      map[string]Customer          `json:"customers"`
	Programs       map[uuid.UUID]LoyaltyProgram `json:"programs"`
	Users          map[uuid.UUID]User           `json:"users"`
	Session        *CashSession                 `json:"session,omitempty"`
	ClosedSessions []CashSession                `json:"closed_sessions"`
	OrderSeq       int32                        `json:"order_seq"`
}

// New returns an empty snapshot with all containers allocated.
func New() State {
	return State{
		Orders:    make(map[uuid.UUID]Order),
		Products:  make(map[uuid.UUID]Product),
		Customers: make(map[string]Customer),
		Programs:  make(map[uuid.UUID]LoyaltyProgram),
		Users:     make(map[uuid.UUID]User),
	}
}

// Clone returns a snapshot whose containers can be written without
// affecting the receiver. Map values are shared; the immutability
// convention above makes that safe.
func (s State) Clone() State {
	ns := State{
		Orders:    make(map[uuid.UUID]Order, len(s.Orders)),
		Products:  make(map[uuid.UUID]Product, len(s.Products)),
		Customers: make(map[string]Customer, len(s.Customers)),
		Programs:  make(map[uuid.UUID]LoyaltyProgram, len(s.Programs)),
		Users:     make(map[uuid.UUID]User, len(s.Users)),
		OrderSeq:  s.OrderSeq,
	}
	for k, v := range s.Orders {
		ns.Orders[k] = v
	}
	for k, v := range s.Products {
		ns.Products[k] = v
	}
	for k, v := range s.Customers {
		ns.Customers[k] = v
	}
	for k, v := range s.Programs {
		ns.Programs[k] = v
	}
	for k, v := range s.Users {
		ns.Users[k] = v
	}
	if s.Session != nil {
		sess := *s.Session
		ns.Session = &sess
	}
	ns.ClosedSessions = append([]CashSession(nil), s.ClosedSessions...)
	return ns
}

// ActiveProgram returns the active loyalty program, or nil.
func (s State) ActiveProgram() *LoyaltyProgram {
	for _, p := range s.Programs {
		if p.Active {
			prog := p
			return &prog
		}
	}
	return nil
}
