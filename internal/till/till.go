// Package till implements the cash-session (drawer) ledger. A session
// runs from open to close; expected cash on hand is always re-derived
// from the full formula, never incremented, so it cannot drift.
package till

import (
	"errors"
	"time"

	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by till operations.
var (
	ErrSessionClosed       = errors.New("cash session is closed")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidDirection    = errors.New("invalid movement direction")
	ErrInvalidOpeningFloat = errors.New("opening float must not be negative")
)

// varianceEpsilon is the tolerance for labeling a close "perfect".
// Presentation only; the stored variance is always exact.
var varianceEpsilon = decimal.RequireFromString("0.1")

// Open starts a new drawer session with the declared opening float.
// The single-open-session precondition is enforced by the dispatcher.
func Open(openingFloat decimal.Decimal, now time.Time) (state.CashSession, error) {
	if openingFloat.IsNegative() {
		return state.CashSession{}, ErrInvalidOpeningFloat
	}
	s := state.CashSession{
		ID:            uuid.New(),
		Open:          true,
		OpeningFloat:  openingFloat,
		SalesByMethod: map[string]decimal.Decimal{},
		OpenedAt:      now,
	}
	s.ExpectedCash = ExpectedCash(s)
	return s, nil
}

// RecordSale accumulates a completed sale into the session totals.
func RecordSale(s state.CashSession, method string, amount, profit decimal.Decimal) (state.CashSession, error) {
	if !s.Open {
		return s, ErrSessionClosed
	}
	byMethod := make(map[string]decimal.Decimal, len(s.SalesByMethod)+1)
	for k, v := range s.SalesByMethod {
		byMethod[k] = v
	}
	byMethod[method] = byMethod[method].Add(amount)
	s.SalesByMethod = byMethod
	s.TotalSales = s.TotalSales.Add(amount)
	s.TotalProfit = s.TotalProfit.Add(profit)
	s.ExpectedCash = ExpectedCash(s)
	return s, nil
}

// AddMovement appends a manual cash ingress or egress to the ledger.
func AddMovement(s state.CashSession, direction string, amount decimal.Decimal, description string, now time.Time) (state.CashSession, error) {
	if !s.Open {
		return s, ErrSessionClosed
	}
	if direction != enum.MovementDirectionIn && direction != enum.MovementDirectionOut {
		return s, ErrInvalidDirection
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return s, ErrInvalidAmount
	}
	s.Movements = append(append([]state.CashMovement(nil), s.Movements...), state.CashMovement{
		Direction:   direction,
		Amount:      amount,
		Description: description,
		At:          now,
	})
	s.ExpectedCash = ExpectedCash(s)
	return s, nil
}

// Close reconciles counted against expected cash and seals the session.
// The stored variance is the exact unrounded difference.
func Close(s state.CashSession, countedCash decimal.Decimal, now time.Time) (state.CashSession, error) {
	if !s.Open {
		return s, ErrSessionClosed
	}
	s.ExpectedCash = ExpectedCash(s)
	s.Open = false
	s.ClosedAt = now
	s.CountedCash = countedCash
	s.Variance = countedCash.Sub(s.ExpectedCash)
	return s, nil
}

// ExpectedCash derives cash on hand from the full formula:
// opening float + cash-method sales + movement ins - movement outs.
func ExpectedCash(s state.CashSession) decimal.Decimal {
	expected := s.OpeningFloat.Add(s.SalesByMethod[enum.PaymentMethodCash])
	for _, m := range s.Movements {
		switch m.Direction {
		case enum.MovementDirectionIn:
			expected = expected.Add(m.Amount)
		case enum.MovementDirectionOut:
			expected = expected.Sub(m.Amount)
		}
	}
	return expected
}

// ClassifyVariance labels a close result for display. Within the
// epsilon of an exact match it reads PERFECT.
func ClassifyVariance(variance decimal.Decimal) string {
	switch {
	case variance.Abs().LessThanOrEqual(varianceEpsilon):
		return enum.VariancePerfect
	case variance.IsPositive():
		return enum.VarianceSurplus
	default:
		return enum.VarianceShortage
	}
}
