// Package loyalty computes point accrual for completed sales and
// manages reward redemption and program activation.
package loyalty

import (
	"errors"

	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by loyalty operations.
var (
	ErrInsufficientPoints = errors.New("insufficient points for reward")
	ErrProgramNotFound    = errors.New("loyalty program not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrRewardNotFound     = errors.New("reward not found in active program")
)

// QualifiesPhone reports whether a phone can participate in loyalty
// matching: exactly 9 digits.
func QualifiesPhone(phone string) bool {
	if len(phone) != 9 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Accrue computes the points a completed sale earns under a program.
// A misconfigured amount-per-unit (zero or negative) is treated as 1 so
// a catalog mistake can never block checkout.
func Accrue(p state.LoyaltyProgram, total decimal.Decimal) int64 {
	switch p.Rule {
	case enum.ProgramRuleAmountSpent:
		amountPerUnit := p.AmountPerUnit
		if amountPerUnit.LessThanOrEqual(decimal.Zero) {
			amountPerUnit = decimal.NewFromInt(1)
		}
		units := total.Div(amountPerUnit).Floor().IntPart()
		return units * p.PointsPerUnit
	case enum.ProgramRulePerPurchase:
		return p.PointsPerPurchase
	}
	return 0
}

// Apply runs accrual for a completed order against the customer ledger
// and returns the updated ledger plus the points earned. With no active
// program or a non-qualifying phone, zero points accrue and the ledger
// is returned untouched. Customers are created lazily on their first
// qualifying order; existing customers have points incremented and the
// order appended, never replaced.
func Apply(ledger map[string]state.Customer, program *state.LoyaltyProgram, o state.Order) (map[string]state.Customer, int64) {
	if program == nil || !QualifiesPhone(o.CustomerPhone) {
		return ledger, 0
	}

	points := Accrue(*program, o.Total)

	next := make(map[string]state.Customer, len(ledger)+1)
	for k, v := range ledger {
		next[k] = v
	}

	c, ok := next[o.CustomerPhone]
	if !ok {
		c = state.Customer{Phone: o.CustomerPhone, Name: o.CustomerName}
	}
	c.Points += points
	c.OrderIDs = append(append([]uuid.UUID(nil), c.OrderIDs...), o.ID)
	next[o.CustomerPhone] = c
	return next, points
}

// Redeem deducts a reward's cost from the customer's balance. On
// insufficient balance the customer is returned unchanged.
func Redeem(c state.Customer, r state.Reward) (state.Customer, error) {
	if c.Points < r.PointsCost {
		return c, ErrInsufficientPoints
	}
	c.Points -= r.PointsCost
	return c, nil
}

// Activate flags one program active and every other program inactive in
// a single pass, so the single-active invariant holds at all times.
func Activate(programs map[uuid.UUID]state.LoyaltyProgram, id uuid.UUID) (map[uuid.UUID]state.LoyaltyProgram, error) {
	if _, ok := programs[id]; !ok {
		return programs, ErrProgramNotFound
	}
	next := make(map[uuid.UUID]state.LoyaltyProgram, len(programs))
	for k, p := range programs {
		p.Active = k == id
		next[k] = p
	}
	return next, nil
}
