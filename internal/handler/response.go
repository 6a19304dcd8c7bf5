package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/brasa-pos/api/internal/loyalty"
	"github.com/brasa-pos/api/internal/order"
	"github.com/brasa-pos/api/internal/state"
	"github.com/brasa-pos/api/internal/till"
	"github.com/google/uuid"
)

// Dispatcher is the typed action seam every handler talks to.
// Satisfied by *dispatch.Store; narrow interface for testability.
type Dispatcher interface {
	Dispatch(ctx context.Context, a dispatch.Action) (state.State, error)
	State() state.State
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps reducer errors onto HTTP statuses: missing
// aggregates read as 404, violated preconditions as 409, bad input as
// 400.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, dispatch.ErrOrderNotFound),
		errors.Is(err, dispatch.ErrProductNotFound),
		errors.Is(err, loyalty.ErrCustomerNotFound),
		errors.Is(err, loyalty.ErrProgramNotFound),
		errors.Is(err, loyalty.ErrRewardNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dispatch.ErrStaleOrder),
		errors.Is(err, dispatch.ErrAlreadyPaid),
		errors.Is(err, dispatch.ErrSessionOpen),
		errors.Is(err, dispatch.ErrNoOpenSession),
		errors.Is(err, dispatch.ErrNoActiveProgram),
		errors.Is(err, till.ErrSessionClosed),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrTerminalStatus),
		errors.Is(err, order.ErrPaymentRequired),
		errors.Is(err, order.ErrUnsentItems),
		errors.Is(err, loyalty.ErrInsufficientPoints):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// --- Response types ---

type addonResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type orderItemResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int32           `json:"quantity"`
	UnitPrice     string          `json:"unit_price"`
	Addons        []addonResponse `json:"addons,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	SentToKitchen bool            `json:"sent_to_kitchen"`
	Reward        bool            `json:"reward,omitempty"`
}

type historyResponse struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Role   string    `json:"role"`
}

type settlementResponse struct {
	Method         string    `json:"method"`
	Total          string    `json:"total"`
	AmountTendered string    `json:"amount_tendered"`
	ChangeDue      string    `json:"change_due"`
	ExactAmount    bool      `json:"exact_amount"`
	At             time.Time `json:"at"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Number          string              `json:"number"`
	Channel         string              `json:"channel"`
	Status          string              `json:"status"`
	CustomerName    string              `json:"customer_name"`
	CustomerPhone   string              `json:"customer_phone,omitempty"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	TableNumber     string              `json:"table_number,omitempty"`
	Items           []orderItemResponse `json:"items"`
	Total           string              `json:"total"`
	PaymentMethod   string              `json:"payment_method"`
	History         []historyResponse   `json:"history"`
	PrepMinutes     int32               `json:"prep_minutes"`
	ElapsedSeconds  int64               `json:"elapsed_seconds"`
	CreatedAt       time.Time           `json:"created_at"`
	AssignedCook    string              `json:"assigned_cook,omitempty"`
	AssignedDriver  string              `json:"assigned_driver,omitempty"`
	PrepArea        string              `json:"prep_area"`
	Settlement      *settlementResponse `json:"settlement,omitempty"`
	PointsEarned    int64               `json:"points_earned"`
	EstimatedProfit string              `json:"estimated_profit"`
	Version         int64               `json:"version"`
}

func toOrderResponse(o state.Order, now time.Time) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		var addons []addonResponse
		for _, a := range it.Addons {
			addons = append(addons, addonResponse{Name: a.Name, Price: a.Price.StringFixed(2)})
		}
		items[i] = orderItemResponse{
			ProductID:     it.ProductID,
			Name:          it.Name,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice.StringFixed(2),
			Addons:        addons,
			Notes:         it.Notes,
			SentToKitchen: it.SentToKitchen,
			Reward:        it.Reward,
		}
	}
	history := make([]historyResponse, len(o.History))
	for i, h := range o.History {
		history[i] = historyResponse(h)
	}
	var settlement *settlementResponse
	if o.Settlement != nil {
		settlement = &settlementResponse{
			Method:         o.Settlement.Method,
			Total:          o.Settlement.Total.StringFixed(2),
			AmountTendered: o.Settlement.AmountTendered.StringFixed(2),
			ChangeDue:      o.Settlement.ChangeDue.StringFixed(2),
			ExactAmount:    o.Settlement.ExactAmount,
			At:             o.Settlement.At,
		}
	}
	return orderResponse{
		ID:              o.ID,
		Number:          o.Number,
		Channel:         o.Channel,
		Status:          o.Status,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		TableNumber:     o.TableNumber,
		Items:           items,
		Total:           o.Total.StringFixed(2),
		PaymentMethod:   o.PaymentMethod,
		History:         history,
		PrepMinutes:     o.PrepMinutes,
		ElapsedSeconds:  int64(o.Elapsed(now).Seconds()),
		CreatedAt:       o.CreatedAt,
		AssignedCook:    o.AssignedCook,
		AssignedDriver:  o.AssignedDriver,
		PrepArea:        o.PrepArea,
		Settlement:      settlement,
		PointsEarned:    o.PointsEarned,
		EstimatedProfit: o.EstimatedProfit.StringFixed(2),
		Version:         o.Version,
	}
}

type movementResponse struct {
	Direction   string    `json:"direction"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

type sessionResponse struct {
	ID            uuid.UUID          `json:"id"`
	Open          bool               `json:"open"`
	OpeningFloat  string             `json:"opening_float"`
	SalesByMethod map[string]string  `json:"sales_by_method"`
	TotalSales    string             `json:"total_sales"`
	TotalProfit   string             `json:"total_profit"`
	Movements     []movementResponse `json:"movements"`
	ExpectedCash  string             `json:"expected_cash"`
	OpenedAt      time.Time          `json:"opened_at"`
	ClosedAt      *time.Time         `json:"closed_at,omitempty"`
	CountedCash   string             `json:"counted_cash,omitempty"`
	Variance      string             `json:"variance,omitempty"`
	VarianceLabel string             `json:"variance_label,omitempty"`
}

func toSessionResponse(s state.CashSession) sessionResponse {
	byMethod := make(map[string]string, len(s.SalesByMethod))
	for m, v := range s.SalesByMethod {
		byMethod[m] = v.StringFixed(2)
	}
	movements := make([]movementResponse, len(s.Movements))
	for i, m := range s.Movements {
		movements[i] = movementResponse{
			Direction:   m.Direction,
			Amount:      m.Amount.StringFixed(2),
			Description: m.Description,
			At:          m.At,
		}
	}
	resp := sessionResponse{
		ID:            s.ID,
		Open:          s.Open,
		OpeningFloat:  s.OpeningFloat.StringFixed(2),
		SalesByMethod: byMethod,
		TotalSales:    s.TotalSales.StringFixed(2),
		TotalProfit:   s.TotalProfit.StringFixed(2),
		Movements:     movements,
		ExpectedCash:  s.ExpectedCash.StringFixed(2),
		OpenedAt:      s.OpenedAt,
	}
	if !s.Open {
		closedAt := s.ClosedAt
		resp.ClosedAt = &closedAt
		resp.CountedCash = s.CountedCash.StringFixed(2)
		resp.Variance = s.Variance.StringFixed(2)
		resp.VarianceLabel = till.ClassifyVariance(s.Variance)
	}
	return resp
}

type customerResponse struct {
	Phone    string      `json:"phone"`
	Name     string      `json:"name"`
	Points   int64       `json:"points"`
	OrderIDs []uuid.UUID `json:"order_ids"`
}

func toCustomerResponse(c state.Customer) customerResponse {
	return customerResponse{
		Phone:    c.Phone,
		Name:     c.Name,
		Points:   c.Points,
		OrderIDs: c.OrderIDs,
	}
}

type rewardResponse struct {
	Name       string    `json:"name"`
	PointsCost int64     `json:"points_cost"`
	ProductID  uuid.UUID `json:"product_id,omitempty"`
}

type programResponse struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Rule              string           `json:"rule"`
	AmountPerUnit     string           `json:"amount_per_unit"`
	PointsPerUnit     int64            `json:"points_per_unit"`
	PointsPerPurchase int64            `json:"points_per_purchase"`
	Active            bool             `json:"active"`
	Rewards           []rewardResponse `json:"rewards"`
}

func toProgramResponse(p state.LoyaltyProgram) programResponse {
	rewards := make([]rewardResponse, len(p.Rewards))
	for i, r := range p.Rewards {
		rewards[i] = rewardResponse(r)
	}
	return programResponse{
		ID:                p.ID,
		Name:              p.Name,
		Rule:              p.Rule,
		AmountPerUnit:     p.AmountPerUnit.StringFixed(2),
		PointsPerUnit:     p.PointsPerUnit,
		PointsPerPurchase: p.PointsPerPurchase,
		Active:            p.Active,
		Rewards:           rewards,
	}
}

type productResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	CostBasis string    `json:"cost_basis"`
	Stock     int32     `json:"stock"`
}

func toProductResponse(p state.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		CostBasis: p.CostBasis.StringFixed(2),
		Stock:     p.Stock,
	}
}
