package dispatch

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action is a typed event dispatched into the reducer. The reducer is
// total over actions: types it does not recognize reduce to a no-op.
type Action interface {
	isAction()
}

// ItemDraft names a catalog product and quantity for an order line.
// Price and display name are resolved from the catalog at reduce time.
type ItemDraft struct {
	ProductID uuid.UUID
	Quantity  int32
	Addons    []AddonDraft
	Notes     string
	Reward    bool
}

// AddonDraft is a priced extra on an item draft.
type AddonDraft struct {
	Name  string
	Price decimal.Decimal
}

// PlaceOrder confirms an order draft: assigns its id and number and
// computes the entry status.
type PlaceOrder struct {
	Channel         string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TableNumber     string
	PaymentMethod   string
	PrepMinutes     int32
	Items           []ItemDraft
	Role            string
}

// UpdateOrderStatus applies a staff-driven transition. A non-zero
// ExpectedVersion makes the update conditional: a stale submission from
// another terminal is rejected instead of silently overwriting.
type UpdateOrderStatus struct {
	OrderID         uuid.UUID
	Status          string
	Role            string
	ExpectedVersion int64
}

// AddOrderItems appends items to an active order; the new items are
// marked not yet sent to the kitchen.
type AddOrderItems struct {
	OrderID uuid.UUID
	Items   []ItemDraft
	Role    string
}

// MarkItemsSent re-sends an order's pending items to the kitchen.
type MarkItemsSent struct {
	OrderID uuid.UUID
}

// RequestBill moves a dine-in order to BILL_REQUESTED.
type RequestBill struct {
	OrderID uuid.UUID
	Role    string
}

// AssignStaff sets the cook or driver on an order.
type AssignStaff struct {
	OrderID uuid.UUID
	Cook    string
	Driver  string
}

// ConfirmPayment settles an order and triggers sale registration.
// Requires an open cash session. Gateway confirmations re-enter the
// core as this same action.
type ConfirmPayment struct {
	OrderID        uuid.UUID
	Method         string
	AmountTendered decimal.Decimal
	ExactAmount    bool
	Role           string
}

// OpenCashSession opens the drawer with a declared float.
type OpenCashSession struct {
	OpeningFloat decimal.Decimal
}

// CloseCashSession reconciles and seals the open session.
type CloseCashSession struct {
	CountedCash decimal.Decimal
}

// AddCashMovement records a manual drawer ingress or egress.
type AddCashMovement struct {
	Direction   string
	Amount      decimal.Decimal
	Description string
}

// RedeemReward deducts a reward's point cost from a customer.
type RedeemReward struct {
	Phone      string
	RewardName string
}

// SetActiveLoyaltyProgram activates one program and deactivates the
// rest atomically.
type SetActiveLoyaltyProgram struct {
	ProgramID uuid.UUID
}

// AdjustStock applies a manual stock correction to a product.
type AdjustStock struct {
	ProductID uuid.UUID
	Delta     int32
}

func (PlaceOrder) isAction()              {}
func (UpdateOrderStatus) isAction()       {}
func (AddOrderItems) isAction()           {}
func (MarkItemsSent) isAction()           {}
func (RequestBill) isAction()             {}
func (AssignStaff) isAction()             {}
func (ConfirmPayment) isAction()          {}
func (OpenCashSession) isAction()         {}
func (CloseCashSession) isAction()        {}
func (AddCashMovement) isAction()         {}
func (RedeemReward) isAction()            {}
func (SetActiveLoyaltyProgram) isAction() {}
func (AdjustStock) isAction()             {}
