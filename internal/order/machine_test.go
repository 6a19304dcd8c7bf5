package order

import (
	"errors"
	"testing"
	"time"

	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testDraft(channel, method string) Draft {
	return Draft{
		Channel:       channel,
		CustomerName:  "Rosa Quispe",
		PaymentMethod: method,
		Items: []state.OrderItem{
			{ProductID: uuid.New(), Name: "Cuarto de Pollo", Quantity: 1, UnitPrice: money("22.00")},
		},
		Role: enum.UserRoleCashier,
	}
}

func mustPlace(t *testing.T, d Draft) state.Order {
	t.Helper()
	o, err := Place(d, 1, testNow)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return o
}

func TestEntryStatus(t *testing.T) {
	tests := []struct {
		channel string
		method  string
		want    string
	}{
		{enum.ChannelDineIn, enum.PaymentMethodCash, enum.OrderStatusNew},
		{enum.ChannelDineIn, enum.PaymentMethodYape, enum.OrderStatusNew},
		{enum.ChannelDelivery, enum.PaymentMethodYape, enum.OrderStatusAwaitingPayment},
		{enum.ChannelDelivery, enum.PaymentMethodOnline, enum.OrderStatusAwaitingPayment},
		{enum.ChannelDelivery, enum.PaymentMethodCash, enum.OrderStatusPreparing},
		{enum.ChannelDelivery, enum.PaymentMethodCard, enum.OrderStatusPreparing},
		{enum.ChannelPickup, enum.PaymentMethodPlin, enum.OrderStatusAwaitingPayment},
		{enum.ChannelPickup, enum.PaymentMethodCash, enum.OrderStatusAwaitingConfirmation},
		{enum.ChannelPickup, enum.PaymentMethodCard, enum.OrderStatusAwaitingConfirmation},
	}
	for _, tt := range tests {
		if got := EntryStatus(tt.channel, tt.method); got != tt.want {
			t.Errorf("EntryStatus(%s, %s) = %s, want %s", tt.channel, tt.method, got, tt.want)
		}
	}
}

func TestPlaceComputesTotal(t *testing.T) {
	d := testDraft(enum.ChannelDineIn, enum.PaymentMethodCash)
	d.Items = []state.OrderItem{
		{
			ProductID: uuid.New(),
			Name:      "Cuarto de Pollo",
			Quantity:  2,
			UnitPrice: money("10.00"),
			Addons:    []state.Addon{{Name: "Aji extra", Price: money("1.00")}},
		},
	}
	o := mustPlace(t, d)

	if !o.Total.Equal(money("22.00")) {
		t.Errorf("total = %s, want 22.00", o.Total)
	}
}

func TestPlaceAssignsNumberAndHistory(t *testing.T) {
	o, err := Place(testDraft(enum.ChannelDineIn, enum.PaymentMethodCash), 7, testNow)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if o.Number != "BRS-007" {
		t.Errorf("number = %s, want BRS-007", o.Number)
	}
	if o.Version != 1 {
		t.Errorf("version = %d, want 1", o.Version)
	}
	if len(o.History) != 1 || o.History[0].Status != enum.OrderStatusNew {
		t.Fatalf("history not seeded with entry status: %+v", o.History)
	}
	if o.History[0].Role != enum.UserRoleCashier {
		t.Errorf("history role = %s, want CASHIER", o.History[0].Role)
	}
}

func TestPlaceValidation(t *testing.T) {
	d := testDraft("DRIVE_THRU", enum.PaymentMethodCash)
	if _, err := Place(d, 1, testNow); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("unknown channel: got %v, want ErrInvalidChannel", err)
	}

	d = testDraft(enum.ChannelDineIn, "BARTER")
	if _, err := Place(d, 1, testNow); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Errorf("unknown method: got %v, want ErrInvalidPaymentMethod", err)
	}

	d = testDraft(enum.ChannelDineIn, enum.PaymentMethodCash)
	d.Items = nil
	if _, err := Place(d, 1, testNow); !errors.Is(err, ErrEmptyItems) {
		t.Errorf("empty items: got %v, want ErrEmptyItems", err)
	}

	d = testDraft(enum.ChannelDineIn, enum.PaymentMethodCash)
	d.Items[0].Quantity = 0
	if _, err := Place(d, 1, testNow); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: got %v, want ErrInvalidQuantity", err)
	}
}

func TestPlaceSendsItemsOnlyWhenPreparing(t *testing.T) {
	// Straight-to-kitchen order: items are visible immediately.
	o := mustPlace(t, testDraft(enum.ChannelDelivery, enum.PaymentMethodCash))
	if !o.Items[0].SentToKitchen {
		t.Error("delivery cash order items should be sent to kitchen at placement")
	}

	// Parked order: kitchen must not see the items yet.
	o = mustPlace(t, testDraft(enum.ChannelPickup, enum.PaymentMethodCash))
	if o.Items[0].SentToKitchen {
		t.Error("awaiting-confirmation order items should not be sent yet")
	}
}

func TestPrepAreaFor(t *testing.T) {
	if got := PrepAreaFor(enum.ChannelDineIn); got != enum.PrepAreaFloor {
		t.Errorf("dine-in area = %s, want FLOOR", got)
	}
	if got := PrepAreaFor(enum.ChannelDelivery); got != enum.PrepAreaDelivery {
		t.Errorf("delivery area = %s, want DELIVERY", got)
	}
	if got := PrepAreaFor(enum.ChannelPickup); got != enum.PrepAreaPickup {
		t.Errorf("pickup area = %s, want PICKUP", got)
	}
}

func TestDeliveryHappyPath(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDelivery, enum.PaymentMethodCash))

	path := []string{
		enum.OrderStatusReadyForAssembly,
		enum.OrderStatusAssembling,
		enum.OrderStatusReady,
		enum.OrderStatusOutForDelivery,
		enum.OrderStatusDelivered,
	}
	for _, next := range path {
		var err error
		o, err = Transition(o, next, enum.UserRoleKitchen, testNow)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if o.Status != enum.OrderStatusDelivered {
		t.Errorf("final status = %s, want DELIVERED", o.Status)
	}
	// Placement + 5 transitions.
	if len(o.History) != 6 {
		t.Errorf("history length = %d, want 6", len(o.History))
	}
}

func TestTransitionRejectsSkippedStates(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDelivery, enum.PaymentMethodCash))
	if _, err := Transition(o, enum.OrderStatusOutForDelivery, enum.UserRoleDriver, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("PREPARING -> OUT_FOR_DELIVERY: got %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionRejectsPaid(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDineIn, enum.PaymentMethodCash))
	if _, err := Transition(o, enum.OrderStatusPaid, enum.UserRoleCashier, testNow); !errors.Is(err, ErrPaymentRequired) {
		t.Errorf("got %v, want ErrPaymentRequired", err)
	}
}

func TestCancelFromAnyActiveState(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelPickup, enum.PaymentMethodCash))
	cancelled, err := Transition(o, enum.OrderStatusCancelled, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enum.OrderStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}

	// Terminal orders reject everything, including another cancel.
	if _, err := Transition(cancelled, enum.OrderStatusCancelled, enum.UserRoleCashier, testNow); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("cancel of cancelled: got %v, want ErrTerminalStatus", err)
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDineIn, enum.PaymentMethodCash))
	first := o.History[0]

	next, err := Transition(o, enum.OrderStatusConfirmed, enum.UserRoleWaiter, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(o.History) != 1 {
		t.Fatal("transition mutated the original order's history")
	}
	if next.History[0] != first {
		t.Error("existing history entry was rewritten")
	}
	if next.History[1].Status != enum.OrderStatusConfirmed {
		t.Errorf("appended status = %s, want CONFIRMED", next.History[1].Status)
	}
}

func TestEnteringPreparingMarksItemsSent(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelPickup, enum.PaymentMethodCash))
	o, err := Transition(o, enum.OrderStatusConfirmed, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if o.Items[0].SentToKitchen {
		t.Fatal("items sent before PREPARING")
	}
	o, err = Transition(o, enum.OrderStatusPreparing, enum.UserRoleKitchen, testNow)
	if err != nil {
		t.Fatalf("start preparing: %v", err)
	}
	if !o.Items[0].SentToKitchen {
		t.Error("entering PREPARING should mark all items sent")
	}
}

func TestRequestBillGuardsUnsentItems(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDineIn, enum.PaymentMethodCash))
	o, err := Transition(o, enum.OrderStatusConfirmed, enum.UserRoleWaiter, testNow)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Entry at NEW leaves items unsent; the bill cannot be closed over
	// food the kitchen has not seen.
	if _, err := RequestBill(o, enum.UserRoleWaiter, testNow); !errors.Is(err, ErrUnsentItems) {
		t.Fatalf("got %v, want ErrUnsentItems", err)
	}

	o = MarkItemsSent(o)
	billed, err := RequestBill(o, enum.UserRoleWaiter, testNow)
	if err != nil {
		t.Fatalf("request bill after send: %v", err)
	}
	if billed.Status != enum.OrderStatusBillRequested {
		t.Errorf("status = %s, want BILL_REQUESTED", billed.Status)
	}
}

func TestRequestBillDineInOnly(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDelivery, enum.PaymentMethodCash))
	if _, err := RequestBill(o, enum.UserRoleWaiter, testNow); !errors.Is(err, ErrDineInOnly) {
		t.Errorf("got %v, want ErrDineInOnly", err)
	}
}

func TestAddItemsRecomputesTotal(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDineIn, enum.PaymentMethodCash))
	before := o.Version

	next, err := AddItems(o, []state.OrderItem{
		{ProductID: uuid.New(), Name: "Inca Kola 1.5L", Quantity: 2, UnitPrice: money("9.00")},
	}, testNow)
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	if !next.Total.Equal(money("40.00")) {
		t.Errorf("total = %s, want 40.00", next.Total)
	}
	if next.Items[1].SentToKitchen {
		t.Error("appended items must start unsent")
	}
	if next.Version != before+1 {
		t.Errorf("version = %d, want %d", next.Version, before+1)
	}
	if len(o.Items) != 1 {
		t.Error("AddItems mutated the original order")
	}
}

func TestAddItemsRejectsTerminal(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDineIn, enum.PaymentMethodCash))
	o, err := Transition(o, enum.OrderStatusCancelled, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := AddItems(o, []state.OrderItem{{Quantity: 1}}, testNow); !errors.Is(err, ErrTerminalStatus) {
		t.Errorf("got %v, want ErrTerminalStatus", err)
	}
}

func TestMarkPaidRequiresSettleableState(t *testing.T) {
	o := mustPlace(t, testDraft(enum.ChannelDelivery, enum.PaymentMethodCash))
	if _, err := MarkPaid(o, enum.UserRoleCashier, testNow); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("PREPARING should not settle: got %v", err)
	}

	for _, next := range []string{enum.OrderStatusReadyForAssembly, enum.OrderStatusAssembling, enum.OrderStatusReady} {
		var err error
		o, err = Transition(o, next, enum.UserRoleKitchen, testNow)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	paid, err := MarkPaid(o, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("mark paid at READY: %v", err)
	}
	if paid.Status != enum.OrderStatusPaid {
		t.Errorf("status = %s, want PAID", paid.Status)
	}
}

func TestAssignStaffChannelGuards(t *testing.T) {
	pickup := mustPlace(t, testDraft(enum.ChannelPickup, enum.PaymentMethodCash))
	if _, err := AssignCook(pickup, "Marco"); !errors.Is(err, ErrCookChannel) {
		t.Errorf("cook on pickup: got %v, want ErrCookChannel", err)
	}

	dineIn := mustPlace(t, testDraft(enum.ChannelDineIn, enum.PaymentMethodCash))
	if _, err := AssignDriver(dineIn, "Luis"); !errors.Is(err, ErrDriverChannel) {
		t.Errorf("driver on dine-in: got %v, want ErrDriverChannel", err)
	}

	delivery := mustPlace(t, testDraft(enum.ChannelDelivery, enum.PaymentMethodCash))
	withDriver, err := AssignDriver(delivery, "Luis")
	if err != nil {
		t.Fatalf("assign driver: %v", err)
	}
	if withDriver.AssignedDriver != "Luis" {
		t.Errorf("driver = %s, want Luis", withDriver.AssignedDriver)
	}
}
