package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/brasa-pos/api/internal/loyalty"
	"github.com/brasa-pos/api/internal/order"
	"github.com/brasa-pos/api/internal/sale"
	"github.com/brasa-pos/api/internal/state"
	"github.com/brasa-pos/api/internal/till"
)

// Errors returned by the reducer for violated preconditions.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrStaleOrder      = errors.New("order changed since it was read, retry")
	ErrAlreadyPaid     = errors.New("order is already paid")
	ErrNoOpenSession   = errors.New("no open cash session")
	ErrSessionOpen     = errors.New("a cash session is already open")
	ErrNoActiveProgram = errors.New("no active loyalty program")
)

// Reduce applies one action to a snapshot and returns the next one.
// It is pure: on any error the input snapshot is returned unchanged,
// and unknown actions reduce to a no-op.
func Reduce(s state.State, a Action, now time.Time) (state.State, error) {
	switch act := a.(type) {
	case PlaceOrder:
		return placeOrder(s, act, now)
	case UpdateOrderStatus:
		return updateOrderStatus(s, act, now)
	case AddOrderItems:
		return addOrderItems(s, act, now)
	case MarkItemsSent:
		return markItemsSent(s, act)
	case RequestBill:
		return requestBill(s, act, now)
	case AssignStaff:
		return assignStaff(s, act)
	case ConfirmPayment:
		return confirmPayment(s, act, now)
	case OpenCashSession:
		return openCashSession(s, act, now)
	case CloseCashSession:
		return closeCashSession(s, act, now)
	case AddCashMovement:
		return addCashMovement(s, act, now)
	case RedeemReward:
		return redeemReward(s, act)
	case SetActiveLoyaltyProgram:
		return setActiveProgram(s, act)
	case AdjustStock:
		return adjustStock(s, act)
	}
	return s, nil
}

// resolveItems turns catalog references into priced order items.
// Placement only sells what the catalog knows; reward items are priced
// at zero regardless of the catalog price.
func resolveItems(s state.State, drafts []ItemDraft) ([]state.OrderItem, error) {
	items := make([]state.OrderItem, 0, len(drafts))
	for i, d := range drafts {
		prod, ok := s.Products[d.ProductID]
		if !ok {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
		}
		price := prod.Price
		if d.Reward {
			price = price.Sub(price) // zero with the same exponent
		}
		var addons []state.Addon
		for _, a := range d.Addons {
			addons = append(addons, state.Addon{Name: a.Name, Price: a.Price})
		}
		items = append(items, state.OrderItem{
			ProductID: d.ProductID,
			Name:      prod.Name,
			Quantity:  d.Quantity,
			UnitPrice: price,
			Addons:    addons,
			Notes:     d.Notes,
			Reward:    d.Reward,
		})
	}
	return items, nil
}

func placeOrder(s state.State, a PlaceOrder, now time.Time) (state.State, error) {
	items, err := resolveItems(s, a.Items)
	if err != nil {
		return s, err
	}
	o, err := order.Place(order.Draft{
		Channel:         a.Channel,
		CustomerName:    a.CustomerName,
		CustomerPhone:   a.CustomerPhone,
		DeliveryAddress: a.DeliveryAddress,
		TableNumber:     a.TableNumber,
		PaymentMethod:   a.PaymentMethod,
		PrepMinutes:     a.PrepMinutes,
		Items:           items,
		Role:            a.Role,
	}, s.OrderSeq+1, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.OrderSeq++
	ns.Orders[o.ID] = o
	return ns, nil
}

func updateOrderStatus(s state.State, a UpdateOrderStatus, now time.Time) (state.State, error) {
	o, ok := s.Orders[a.OrderID]
	if !ok {
		return s, ErrOrderNotFound
	}
	if a.ExpectedVersion != 0 && o.Version != a.ExpectedVersion {
		return s, ErrStaleOrder
	}
	next, err := order.Transition(o, a.Status, a.Role, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Orders[next.ID] = next
	return ns, nil
}

func addOrderItems(s state.State, a AddOrderItems, now time.Time) (state.State, error) {
	o, ok := s.Orders[a.OrderID]
	if !ok {
		return s, ErrOrderNotFound
	}
	items, err := resolveItems(s, a.Items)
	if err != nil {
		return s, err
	}
	next, err := order.AddItems(o, items, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Orders[next.ID] = next
	return ns, nil
}

func markItemsSent(s state.State, a MarkItemsSent) (state.State, error) {
	o, ok := s.Orders[a.OrderID]
	if !ok {
		return s, ErrOrderNotFound
	}
	ns := s.Clone()
	ns.Orders[o.ID] = order.MarkItemsSent(o)
	return ns, nil
}

func requestBill(s state.State, a RequestBill, now time.Time) (state.State, error) {
	o, ok := s.Orders[a.OrderID]
	if !ok {
		return s, ErrOrderNotFound
	}
	next, err := order.RequestBill(o, a.Role, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Orders[next.ID] = next
	return ns, nil
}

func assignStaff(s state.State, a AssignStaff) (state.State, error) {
	o, ok := s.Orders[a.OrderID]
	if !ok {
		return s, ErrOrderNotFound
	}
	var err error
	if a.Cook != "" {
		if o, err = order.AssignCook(o, a.Cook); err != nil {
			return s, err
		}
	}
	if a.Driver != "" {
		if o, err = order.AssignDriver(o, a.Driver); err != nil {
			return s, err
		}
	}
	ns := s.Clone()
	ns.Orders[o.ID] = o
	return ns, nil
}

// confirmPayment is the single paid-transition path: it requires an
// open cash session, runs sale registration exactly once, and
// accumulates the sale into the session.
func confirmPayment(s state.State, a ConfirmPayment, now time.Time) (state.State, error) {
	if s.Session == nil || !s.Session.Open {
		return s, ErrNoOpenSession
	}
	o, ok := s.Orders[a.OrderID]
	if !ok {
		return s, ErrOrderNotFound
	}
	if o.Settlement != nil {
		return s, ErrAlreadyPaid
	}
	method := a.Method
	if method == "" {
		method = o.PaymentMethod
	}
	if !order.ValidPaymentMethod(method) {
		return s, order.ErrInvalidPaymentMethod
	}

	res, err := sale.Register(o, s.Products, s.Customers, s.ActiveProgram(), sale.Payment{
		Method:         method,
		AmountTendered: a.AmountTendered,
		ExactAmount:    a.ExactAmount,
	}, a.Role, now)
	if err != nil {
		return s, err
	}

	sess, err := till.RecordSale(*s.Session, method, res.Order.Total, res.Order.EstimatedProfit)
	if err != nil {
		return s, err
	}

	ns := s.Clone()
	ns.Orders[res.Order.ID] = res.Order
	ns.Products = res.Products
	ns.Customers = res.Customers
	ns.Session = &sess
	return ns, nil
}

func openCashSession(s state.State, a OpenCashSession, now time.Time) (state.State, error) {
	if s.Session != nil && s.Session.Open {
		return s, ErrSessionOpen
	}
	sess, err := till.Open(a.OpeningFloat, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Session = &sess
	return ns, nil
}

func closeCashSession(s state.State, a CloseCashSession, now time.Time) (state.State, error) {
	if s.Session == nil {
		return s, ErrNoOpenSession
	}
	sess, err := till.Close(*s.Session, a.CountedCash, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Session = nil
	ns.ClosedSessions = append(ns.ClosedSessions, sess)
	return ns, nil
}

func addCashMovement(s state.State, a AddCashMovement, now time.Time) (state.State, error) {
	if s.Session == nil {
		return s, ErrNoOpenSession
	}
	sess, err := till.AddMovement(*s.Session, a.Direction, a.Amount, a.Description, now)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Session = &sess
	return ns, nil
}

func redeemReward(s state.State, a RedeemReward) (state.State, error) {
	c, ok := s.Customers[a.Phone]
	if !ok {
		return s, loyalty.ErrCustomerNotFound
	}
	program := s.ActiveProgram()
	if program == nil {
		return s, ErrNoActiveProgram
	}
	var reward *state.Reward
	for _, r := range program.Rewards {
		if r.Name == a.RewardName {
			reward = &r
			break
		}
	}
	if reward == nil {
		return s, loyalty.ErrRewardNotFound
	}
	next, err := loyalty.Redeem(c, *reward)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Customers[next.Phone] = next
	return ns, nil
}

func setActiveProgram(s state.State, a SetActiveLoyaltyProgram) (state.State, error) {
	programs, err := loyalty.Activate(s.Programs, a.ProgramID)
	if err != nil {
		return s, err
	}
	ns := s.Clone()
	ns.Programs = programs
	return ns, nil
}

func adjustStock(s state.State, a AdjustStock) (state.State, error) {
	prod, ok := s.Products[a.ProductID]
	if !ok {
		return s, ErrProductNotFound
	}
	prod.Stock += a.Delta
	if prod.Stock < 0 {
		prod.Stock = 0
	}
	ns := s.Clone()
	ns.Products[prod.ID] = prod
	return ns, nil
}
