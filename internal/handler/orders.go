package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/middleware"
	"github.com/brasa-pos/api/internal/state"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHandler exposes the order action protocol.
type OrderHandler struct {
	store Dispatcher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store Dispatcher) *OrderHandler {
	return &OrderHandler{store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Place)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/items", h.AddItems)
	r.Post("/{id}/send", h.SendItems)
	r.Post("/{id}/bill", h.RequestBill)
	r.Post("/{id}/assign", h.Assign)
	r.Delete("/{id}", h.Cancel)
}

// --- Request types ---

type placeOrderRequest struct {
	Channel         string             `json:"channel"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	DeliveryAddress string             `json:"delivery_address"`
	TableNumber     string             `json:"table_number"`
	PaymentMethod   string             `json:"payment_method"`
	PrepMinutes     int32              `json:"prep_minutes"`
	Items           []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID string         `json:"product_id"`
	Quantity  int32          `json:"quantity"`
	Addons    []addonRequest `json:"addons"`
	Notes     string         `json:"notes"`
	Reward    bool           `json:"reward"`
}

type addonRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type updateStatusRequest struct {
	Status          string `json:"status"`
	ExpectedVersion int64  `json:"expected_version"`
}

type addItemsRequest struct {
	Items []orderItemRequest `json:"items"`
}

type assignRequest struct {
	Cook   string `json:"cook"`
	Driver string `json:"driver"`
}

func toItemDrafts(items []orderItemRequest) ([]dispatch.ItemDraft, error) {
	drafts := make([]dispatch.ItemDraft, len(items))
	for i, it := range items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, err
		}
		var addons []dispatch.AddonDraft
		for _, a := range it.Addons {
			price, err := decimal.NewFromString(a.Price)
			if err != nil {
				return nil, err
			}
			addons = append(addons, dispatch.AddonDraft{Name: a.Name, Price: price})
		}
		drafts[i] = dispatch.ItemDraft{
			ProductID: pid,
			Quantity:  it.Quantity,
			Addons:    addons,
			Notes:     it.Notes,
			Reward:    it.Reward,
		}
	}
	return drafts, nil
}

// --- Handlers ---

// Place handles POST /orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Channel == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "channel is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}
	drafts, err := toItemDrafts(req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item"})
		return
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.PlaceOrder{
		Channel:         req.Channel,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		TableNumber:     req.TableNumber,
		PaymentMethod:   req.PaymentMethod,
		PrepMinutes:     req.PrepMinutes,
		Items:           drafts,
		Role:            claims.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The placed order is the one carrying the new sequence number.
	placed, ok := orderBySeq(ns, ns.OrderSeq)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(placed, time.Now()))
}

// List handles GET /orders. Optional filters: status, channel, area.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	channel := r.URL.Query().Get("channel")
	area := r.URL.Query().Get("area")

	s := h.store.State()
	now := time.Now()
	orders := make([]orderResponse, 0, len(s.Orders))
	for _, o := range s.Orders {
		if status != "" && o.Status != status {
			continue
		}
		if channel != "" && o.Channel != channel {
			continue
		}
		if area != "" && o.PrepArea != area {
			continue
		}
		orders = append(orders, toOrderResponse(o, now))
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	o, ok := h.store.State().Orders[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o, time.Now()))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.UpdateOrderStatus{
		OrderID:         id,
		Status:          req.Status,
		Role:            claims.Role,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(ns.Orders[id], time.Now()))
}

// AddItems handles POST /orders/{id}/items.
func (h *OrderHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	drafts, err := toItemDrafts(req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item"})
		return
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.AddOrderItems{
		OrderID: id,
		Items:   drafts,
		Role:    claims.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(ns.Orders[id], time.Now()))
}

// SendItems handles POST /orders/{id}/send: re-sends pending items to
// the kitchen.
func (h *OrderHandler) SendItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.MarkItemsSent{OrderID: id})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(ns.Orders[id], time.Now()))
}

// RequestBill handles POST /orders/{id}/bill.
func (h *OrderHandler) RequestBill(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.RequestBill{OrderID: id, Role: claims.Role})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(ns.Orders[id], time.Now()))
}

// Assign handles POST /orders/{id}/assign.
func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Cook == "" && req.Driver == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cook or driver is required"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.AssignStaff{
		OrderID: id,
		Cook:    req.Cook,
		Driver:  req.Driver,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(ns.Orders[id], time.Now()))
}

// Cancel handles DELETE /orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.UpdateOrderStatus{
		OrderID: id,
		Status:  enum.OrderStatusCancelled,
		Role:    claims.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(ns.Orders[id], time.Now()))
}

func orderBySeq(s state.State, seq int32) (state.Order, bool) {
	number := fmt.Sprintf("BRS-%03d", seq)
	for _, o := range s.Orders {
		if o.Number == number {
			return o, true
		}
	}
	return state.Order{}, false
}
