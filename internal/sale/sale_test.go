package sale

import (
	"errors"
	"testing"
	"time"

	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/order"
	"github.com/brasa-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// readyOrder builds a dine-in order walked to READY, the settleable
// state, selling qty units of the product.
func readyOrder(t *testing.T, productID uuid.UUID, qty int32, unitPrice string) state.Order {
	t.Helper()
	o, err := order.Place(order.Draft{
		Channel:       enum.ChannelDineIn,
		CustomerName:  "Rosa Quispe",
		CustomerPhone: "987654321",
		PaymentMethod: enum.PaymentMethodCash,
		Items: []state.OrderItem{
			{ProductID: productID, Name: "Cuarto de Pollo", Quantity: qty, UnitPrice: money(unitPrice)},
		},
		Role: enum.UserRoleWaiter,
	}, 1, testNow)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	for _, next := range []string{enum.OrderStatusConfirmed, enum.OrderStatusPreparing, enum.OrderStatusReady} {
		if o, err = order.Transition(o, next, enum.UserRoleKitchen, testNow); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	return o
}

func testCatalog(productID uuid.UUID, cost string, stock int32) map[uuid.UUID]state.Product {
	return map[uuid.UUID]state.Product{
		productID: {ID: productID, Name: "Cuarto de Pollo", Price: money("22.00"), CostBasis: money(cost), Stock: stock},
	}
}

func TestRegisterCashChange(t *testing.T) {
	pid := uuid.New()
	o := readyOrder(t, pid, 1, "22.00")

	res, err := Register(o, testCatalog(pid, "10.50", 10), nil, nil, Payment{
		Method:         enum.PaymentMethodCash,
		AmountTendered: money("50.00"),
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	s := res.Order.Settlement
	if s == nil {
		t.Fatal("no settlement attached")
	}
	if !s.AmountTendered.Equal(money("50.00")) || !s.ChangeDue.Equal(money("28.00")) {
		t.Errorf("tendered %s change %s, want 50.00 / 28.00", s.AmountTendered, s.ChangeDue)
	}
	if res.Order.Status != enum.OrderStatusPaid {
		t.Errorf("status = %s, want PAID", res.Order.Status)
	}
}

func TestRegisterExactAmount(t *testing.T) {
	pid := uuid.New()
	o := readyOrder(t, pid, 1, "22.00")

	res, err := Register(o, testCatalog(pid, "10.50", 10), nil, nil, Payment{
		Method:      enum.PaymentMethodCash,
		ExactAmount: true,
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	s := res.Order.Settlement
	if !s.AmountTendered.Equal(o.Total) || !s.ChangeDue.IsZero() {
		t.Errorf("tendered %s change %s, want total / 0", s.AmountTendered, s.ChangeDue)
	}
	if !s.ExactAmount {
		t.Error("exact-amount flag not recorded")
	}
}

func TestRegisterNonCashIgnoresTendered(t *testing.T) {
	pid := uuid.New()
	o := readyOrder(t, pid, 1, "22.00")

	res, err := Register(o, testCatalog(pid, "10.50", 10), nil, nil, Payment{
		Method:         enum.PaymentMethodYape,
		AmountTendered: money("100.00"),
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	s := res.Order.Settlement
	if !s.AmountTendered.Equal(o.Total) || !s.ChangeDue.IsZero() {
		t.Errorf("wallet settlement tendered %s change %s, want total / 0", s.AmountTendered, s.ChangeDue)
	}
	if res.Order.PaymentMethod != enum.PaymentMethodYape {
		t.Errorf("payment method = %s, want YAPE", res.Order.PaymentMethod)
	}
}

func TestRegisterProfit(t *testing.T) {
	pid := uuid.New()
	o := readyOrder(t, pid, 2, "22.00")

	res, err := Register(o, testCatalog(pid, "10.50", 10), nil, nil, Payment{
		Method: enum.PaymentMethodCard,
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	// 44.00 total - 2 * 10.50 cost.
	if !res.Order.EstimatedProfit.Equal(money("23.00")) {
		t.Errorf("profit = %s, want 23.00", res.Order.EstimatedProfit)
	}
}

func TestRegisterMissingProductDegradesGracefully(t *testing.T) {
	// The item's product was deleted from the catalog after placement.
	// The sale still completes; the vanished line contributes zero cost
	// and no stock movement.
	o := readyOrder(t, uuid.New(), 2, "22.00")

	res, err := Register(o, map[uuid.UUID]state.Product{}, nil, nil, Payment{
		Method: enum.PaymentMethodCard,
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !res.Order.EstimatedProfit.Equal(money("44.00")) {
		t.Errorf("profit = %s, want full total 44.00", res.Order.EstimatedProfit)
	}
}

func TestRegisterDecrementsStockFlooredAtZero(t *testing.T) {
	pid := uuid.New()
	o := readyOrder(t, pid, 3, "22.00")

	res, err := Register(o, testCatalog(pid, "10.50", 1), nil, nil, Payment{
		Method: enum.PaymentMethodCard,
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := res.Products[pid].Stock; got != 0 {
		t.Errorf("stock = %d, want 0 (floored)", got)
	}
}

func TestRegisterRunsLoyaltyAccrual(t *testing.T) {
	pid := uuid.New()
	o := readyOrder(t, pid, 2, "22.00")
	program := &state.LoyaltyProgram{
		Rule:          enum.ProgramRuleAmountSpent,
		AmountPerUnit: money("10"),
		PointsPerUnit: 5,
		Active:        true,
	}

	res, err := Register(o, testCatalog(pid, "10.50", 10), map[string]state.Customer{}, program, Payment{
		Method: enum.PaymentMethodCard,
	}, enum.UserRoleCashier, testNow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	// floor(44 / 10) * 5
	if res.Order.PointsEarned != 20 {
		t.Errorf("points earned = %d, want 20", res.Order.PointsEarned)
	}
	if res.Customers["987654321"].Points != 20 {
		t.Errorf("ledger points = %d, want 20", res.Customers["987654321"].Points)
	}
}

func TestRegisterRejectsUnsettleableState(t *testing.T) {
	pid := uuid.New()
	o, err := order.Place(order.Draft{
		Channel:       enum.ChannelDelivery,
		CustomerName:  "Rosa Quispe",
		PaymentMethod: enum.PaymentMethodCash,
		Items: []state.OrderItem{
			{ProductID: pid, Name: "Cuarto de Pollo", Quantity: 1, UnitPrice: money("22.00")},
		},
		Role: enum.UserRoleCashier,
	}, 1, testNow)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// Fresh delivery order sits at PREPARING, not settleable.
	if _, err := Register(o, testCatalog(pid, "10.50", 10), nil, nil, Payment{
		Method: enum.PaymentMethodCash, ExactAmount: true,
	}, enum.UserRoleCashier, testNow); !errors.Is(err, order.ErrInvalidTransition) {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
}
