package enum

// ── Group A: State machines ──

const (
	OrderStatusAwaitingPayment      = "AWAITING_PAYMENT_CONFIRMATION"
	OrderStatusAwaitingConfirmation = "AWAITING_ORDER_CONFIRMATION"
	OrderStatusNew                  = "NEW"
	OrderStatusConfirmed            = "CONFIRMED"
	OrderStatusPreparing            = "PREPARING"
	OrderStatusReadyForAssembly     = "READY_FOR_ASSEMBLY"
	OrderStatusAssembling           = "ASSEMBLING"
	OrderStatusReady                = "READY"
	OrderStatusOutForDelivery       = "OUT_FOR_DELIVERY"
	OrderStatusDelivered            = "DELIVERED"
	OrderStatusPickedUp             = "PICKED_UP"
	OrderStatusBillRequested        = "BILL_REQUESTED"
	OrderStatusPaid                 = "PAID"
	OrderStatusCancelled            = "CANCELLED"
)

const (
	GatewayStatusApproved = "APPROVED"
	GatewayStatusRejected = "REJECTED"
	GatewayStatusPending  = "PENDING"
)

// ── Group B: Closed domain unions ──

const (
	ChannelDelivery = "DELIVERY"
	ChannelDineIn   = "DINE_IN"
	ChannelPickup   = "PICKUP"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodCard   = "CARD"
	PaymentMethodYape   = "YAPE"
	PaymentMethodPlin   = "PLIN"
	PaymentMethodOnline = "ONLINE"
)

const (
	MovementDirectionIn  = "IN"
	MovementDirectionOut = "OUT"
)

const (
	ProgramRuleAmountSpent = "AMOUNT_SPENT"
	ProgramRulePerPurchase = "PER_PURCHASE"
)

const (
	UserRoleOwner   = "OWNER"
	UserRoleCashier = "CASHIER"
	UserRoleWaiter  = "WAITER"
	UserRoleKitchen = "KITCHEN"
	UserRoleDriver  = "DRIVER"
)

// ── Group C: Derived / presentation labels ──

const (
	PrepAreaFloor    = "FLOOR"
	PrepAreaDelivery = "DELIVERY"
	PrepAreaPickup   = "PICKUP"
)

const (
	VariancePerfect  = "PERFECT"
	VarianceSurplus  = "SURPLUS"
	VarianceShortage = "SHORTAGE"
)
