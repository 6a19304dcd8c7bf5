// Package sale implements sale registration: the bookkeeping transform
// run exactly once per order at payment confirmation. It is pure with
// respect to its three return values and never fails; data-quality
// problems degrade to zero-effect so a sale can always complete.
package sale

import (
	"time"

	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/loyalty"
	"github.com/brasa-pos/api/internal/order"
	"github.com/brasa-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment carries the confirmed payment details.
type Payment struct {
	Method         string
	AmountTendered decimal.Decimal
	ExactAmount    bool
}

// Result is the full outcome of registering a sale.
type Result struct {
	Order     state.Order
	Products  map[uuid.UUID]state.Product
	Customers map[string]state.Customer
}

// Register stamps the order paid with its settlement record, computes
// the estimated profit, decrements catalog stock and runs loyalty
// accrual. The caller (the dispatcher) decides when it is safe to run;
// Register itself takes no such decision. The error only reports an
// order that is not in a settleable state; all downstream effects are
// infallible.
func Register(o state.Order, products map[uuid.UUID]state.Product, customers map[string]state.Customer, program *state.LoyaltyProgram, p Payment, role string, now time.Time) (Result, error) {
	paid, err := order.MarkPaid(o, role, now)
	if err != nil {
		return Result{}, err
	}

	tendered := p.AmountTendered
	change := decimal.Zero
	if p.Method == enum.PaymentMethodCash {
		if p.ExactAmount || tendered.LessThan(paid.Total) {
			tendered = paid.Total
		}
		change = tendered.Sub(paid.Total)
	} else {
		tendered = paid.Total
	}
	paid.Settlement = &state.Settlement{
		Method:         p.Method,
		Total:          paid.Total,
		AmountTendered: tendered,
		ChangeDue:      change,
		ExactAmount:    p.ExactAmount,
		At:             now,
	}
	paid.PaymentMethod = p.Method

	// Estimated profit: items without a matching product or recorded
	// cost basis contribute zero cost.
	cost := decimal.Zero
	for _, it := range paid.Items {
		prod, ok := products[it.ProductID]
		if !ok {
			continue
		}
		cost = cost.Add(prod.CostBasis.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	paid.EstimatedProfit = paid.Total.Sub(cost)

	// Stock leaves the shelf for every line item, reward items
	// included; floor at zero.
	nextProducts := make(map[uuid.UUID]state.Product, len(products))
	for k, v := range products {
		nextProducts[k] = v
	}
	for _, it := range paid.Items {
		prod, ok := nextProducts[it.ProductID]
		if !ok {
			continue
		}
		prod.Stock -= it.Quantity
		if prod.Stock < 0 {
			prod.Stock = 0
		}
		nextProducts[it.ProductID] = prod
	}

	nextCustomers, points := loyalty.Apply(customers, program, paid)
	paid.PointsEarned = points

	return Result{
		Order:     paid,
		Products:  nextProducts,
		Customers: nextCustomers,
	}, nil
}
