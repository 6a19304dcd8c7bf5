// Package order implements the order status machine: entry-state
// selection, per-channel transition tables, and the append-only status
// history. All functions return a modified copy of their input order.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by the order machine.
var (
	ErrInvalidChannel       = errors.New("invalid channel")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("transition not allowed")
	ErrTerminalStatus       = errors.New("order is in a terminal status")
	ErrPaymentRequired      = errors.New("PAID is reached through payment confirmation")
	ErrUnsentItems          = errors.New("order has items not yet sent to kitchen")
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrDineInOnly           = errors.New("operation is dine-in only")
	ErrCookChannel          = errors.New("cook assignment requires a kitchen channel")
	ErrDriverChannel        = errors.New("driver assignment requires a delivery order")
)

// payNow reports whether a payment method settles through the gateway
// before the kitchen starts.
func payNow(method string) bool {
	switch method {
	case enum.PaymentMethodYape, enum.PaymentMethodPlin, enum.PaymentMethodOnline:
		return true
	}
	return false
}

// transitions lists the staff-driven forward edges per channel.
// CANCELLED (from any non-terminal) and PAID (via MarkPaid) are handled
// separately.
var transitions = map[string]map[string][]string{
	enum.ChannelDelivery: {
		enum.OrderStatusAwaitingPayment:  {enum.OrderStatusPreparing},
		enum.OrderStatusPreparing:        {enum.OrderStatusReadyForAssembly},
		enum.OrderStatusReadyForAssembly: {enum.OrderStatusAssembling},
		enum.OrderStatusAssembling:       {enum.OrderStatusReady},
		enum.OrderStatusReady:            {enum.OrderStatusOutForDelivery},
		enum.OrderStatusOutForDelivery:   {enum.OrderStatusDelivered},
	},
	enum.ChannelPickup: {
		enum.OrderStatusAwaitingPayment:      {enum.OrderStatusPreparing},
		enum.OrderStatusAwaitingConfirmation: {enum.OrderStatusConfirmed},
		enum.OrderStatusConfirmed:            {enum.OrderStatusPreparing},
		enum.OrderStatusPreparing:            {enum.OrderStatusReady},
		enum.OrderStatusReady:                {enum.OrderStatusPickedUp},
	},
	enum.ChannelDineIn: {
		enum.OrderStatusNew:       {enum.OrderStatusConfirmed},
		enum.OrderStatusConfirmed: {enum.OrderStatusPreparing, enum.OrderStatusBillRequested},
		enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusBillRequested},
		enum.OrderStatusReady:     {enum.OrderStatusBillRequested},
	},
}

// settleFrom lists the states a payment confirmation may arrive in.
var settleFrom = map[string]map[string]bool{
	enum.ChannelDelivery: {
		enum.OrderStatusReady:          true,
		enum.OrderStatusOutForDelivery: true,
		enum.OrderStatusDelivered:      true,
	},
	enum.ChannelPickup: {
		enum.OrderStatusReady:    true,
		enum.OrderStatusPickedUp: true,
	},
	enum.ChannelDineIn: {
		enum.OrderStatusReady:         true,
		enum.OrderStatusBillRequested: true,
	},
}

var validStatuses = map[string]bool{
	enum.OrderStatusAwaitingPayment:      true,
	enum.OrderStatusAwaitingConfirmation: true,
	enum.OrderStatusNew:                  true,
	enum.OrderStatusConfirmed:            true,
	enum.OrderStatusPreparing:            true,
	enum.OrderStatusReadyForAssembly:     true,
	enum.OrderStatusAssembling:           true,
	enum.OrderStatusReady:                true,
	enum.OrderStatusOutForDelivery:       true,
	enum.OrderStatusDelivered:            true,
	enum.OrderStatusPickedUp:             true,
	enum.OrderStatusBillRequested:        true,
	enum.OrderStatusPaid:                 true,
	enum.OrderStatusCancelled:            true,
}

// ValidStatus reports whether s names a known order status.
func ValidStatus(s string) bool { return validStatuses[s] }

// ValidChannel reports whether c names a known channel.
func ValidChannel(c string) bool {
	switch c {
	case enum.ChannelDelivery, enum.ChannelDineIn, enum.ChannelPickup:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m names a known payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCash, enum.PaymentMethodCard,
		enum.PaymentMethodYape, enum.PaymentMethodPlin, enum.PaymentMethodOnline:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions may leave status.
func IsTerminal(status string) bool {
	return status == enum.OrderStatusPaid || status == enum.OrderStatusCancelled
}

// EntryStatus picks the state an order enters at placement. Dine-in
// always starts at NEW through the POS flow; pay-now wallet orders wait
// for gateway confirmation; in-person pickup orders wait for staff
// confirmation; everything else goes straight to the kitchen.
func EntryStatus(channel, method string) string {
	switch {
	case channel == enum.ChannelDineIn:
		return enum.OrderStatusNew
	case payNow(method):
		return enum.OrderStatusAwaitingPayment
	case channel == enum.ChannelPickup:
		return enum.OrderStatusAwaitingConfirmation
	default:
		return enum.OrderStatusPreparing
	}
}

// PrepAreaFor routes a channel to its kitchen lane.
func PrepAreaFor(channel string) string {
	switch channel {
	case enum.ChannelDineIn:
		return enum.PrepAreaFloor
	case enum.ChannelDelivery:
		return enum.PrepAreaDelivery
	default:
		return enum.PrepAreaPickup
	}
}

// CanTransition reports whether the staff-driven edge from -> to exists
// for the channel. CANCELLED is reachable from any non-terminal state.
func CanTransition(channel, from, to string) bool {
	if IsTerminal(from) {
		return false
	}
	if to == enum.OrderStatusCancelled {
		return true
	}
	for _, next := range transitions[channel][from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanSettle reports whether a payment confirmation is accepted in the
// order's current state.
func CanSettle(channel, from string) bool {
	return settleFrom[channel][from]
}

// Draft is the validated input for placing an order. Item prices and
// names are resolved from the catalog before the draft reaches here.
type Draft struct {
	Channel         string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TableNumber     string
	PaymentMethod   string
	PrepMinutes     int32
	Items           []state.OrderItem
	Role            string
}

// Place builds a new order from a draft: assigns the id and sequential
// number, computes the entry status and prep area, recomputes the total
// and seeds the history log.
func Place(d Draft, seq int32, now time.Time) (state.Order, error) {
	if !ValidChannel(d.Channel) {
		return state.Order{}, ErrInvalidChannel
	}
	if !ValidPaymentMethod(d.PaymentMethod) {
		return state.Order{}, ErrInvalidPaymentMethod
	}
	if len(d.Items) == 0 {
		return state.Order{}, ErrEmptyItems
	}
	items := make([]state.OrderItem, len(d.Items))
	for i, it := range d.Items {
		if it.Quantity <= 0 {
			return state.Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		items[i] = it
	}

	entry := EntryStatus(d.Channel, d.PaymentMethod)
	// Kitchen sees the initial items immediately unless the order is
	// parked awaiting a confirmation.
	sent := entry == enum.OrderStatusPreparing
	for i := range items {
		items[i].SentToKitchen = sent
	}

	o := state.Order{
		ID:              uuid.New(),
		Number:          fmt.Sprintf("BRS-%03d", seq),
		Channel:         d.Channel,
		Status:          entry,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		DeliveryAddress: d.DeliveryAddress,
		TableNumber:     d.TableNumber,
		Items:           items,
		Total:           Recompute(items),
		PaymentMethod:   d.PaymentMethod,
		PrepMinutes:     d.PrepMinutes,
		CreatedAt:       now,
		PrepArea:        PrepAreaFor(d.Channel),
		Version:         1,
		History: []state.HistoryEntry{
			{Status: entry, At: now, Role: d.Role},
		},
	}
	return o, nil
}

// Recompute derives the order total from scratch:
// sum(item price * qty + addon prices * qty).
func Recompute(items []state.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromInt32(it.Quantity)
		line := it.UnitPrice.Mul(qty)
		for _, a := range it.Addons {
			line = line.Add(a.Price.Mul(qty))
		}
		total = total.Add(line)
	}
	return total
}

// Transition moves the order to a new status, appending to history.
// Entering PREPARING marks every item as sent to the kitchen. PAID is
// rejected here: payment confirmation is the only path to it.
func Transition(o state.Order, to, role string, now time.Time) (state.Order, error) {
	if !ValidStatus(to) {
		return o, ErrInvalidStatus
	}
	if to == enum.OrderStatusPaid {
		return o, ErrPaymentRequired
	}
	if IsTerminal(o.Status) {
		return o, ErrTerminalStatus
	}
	if to == enum.OrderStatusBillRequested && hasUnsentItems(o) {
		return o, ErrUnsentItems
	}
	if !CanTransition(o.Channel, o.Status, to) {
		return o, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o = advance(o, to, role, now)
	if to == enum.OrderStatusPreparing {
		o = markSent(o)
	}
	return o, nil
}

// MarkPaid stamps the order PAID. Only the sale registration path calls
// this, after CanSettle has been checked.
func MarkPaid(o state.Order, role string, now time.Time) (state.Order, error) {
	if IsTerminal(o.Status) {
		return o, ErrTerminalStatus
	}
	if !CanSettle(o.Channel, o.Status) {
		return o, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, enum.OrderStatusPaid)
	}
	return advance(o, enum.OrderStatusPaid, role, now), nil
}

// RequestBill moves a dine-in order to BILL_REQUESTED. Rejected while
// any item has not been sent to the kitchen.
func RequestBill(o state.Order, role string, now time.Time) (state.Order, error) {
	if o.Channel != enum.ChannelDineIn {
		return o, ErrDineInOnly
	}
	return Transition(o, enum.OrderStatusBillRequested, role, now)
}

// AddItems appends items to an active order. New items are marked not
// yet sent and must be re-sent explicitly; the total is recomputed.
func AddItems(o state.Order, items []state.OrderItem, now time.Time) (state.Order, error) {
	if IsTerminal(o.Status) {
		return o, ErrTerminalStatus
	}
	if len(items) == 0 {
		return o, ErrEmptyItems
	}
	merged := append([]state.OrderItem(nil), o.Items...)
	for i, it := range items {
		if it.Quantity <= 0 {
			return o, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		it.SentToKitchen = false
		merged = append(merged, it)
	}
	o.Items = merged
	o.Total = Recompute(merged)
	o.Version++
	return o, nil
}

// MarkItemsSent flags every item as transmitted to the kitchen.
func MarkItemsSent(o state.Order) state.Order {
	if !hasUnsentItems(o) {
		return o
	}
	o = markSent(o)
	o.Version++
	return o
}

// AssignCook sets the cook on a kitchen-prepared order.
func AssignCook(o state.Order, cook string) (state.Order, error) {
	if o.Channel == enum.ChannelPickup {
		return o, ErrCookChannel
	}
	o.AssignedCook = cook
	o.Version++
	return o, nil
}

// AssignDriver sets the driver on a delivery order.
func AssignDriver(o state.Order, driver string) (state.Order, error) {
	if o.Channel != enum.ChannelDelivery {
		return o, ErrDriverChannel
	}
	o.AssignedDriver = driver
	o.Version++
	return o, nil
}

func hasUnsentItems(o state.Order) bool {
	for _, it := range o.Items {
		if !it.SentToKitchen {
			return true
		}
	}
	return false
}

func markSent(o state.Order) state.Order {
	items := append([]state.OrderItem(nil), o.Items...)
	for i := range items {
		items[i].SentToKitchen = true
	}
	o.Items = items
	return o
}

func advance(o state.Order, to, role string, now time.Time) state.Order {
	o.Status = to
	o.History = append(append([]state.HistoryEntry(nil), o.History...), state.HistoryEntry{
		Status: to,
		At:     now,
		Role:   role,
	})
	o.Version++
	return o
}
