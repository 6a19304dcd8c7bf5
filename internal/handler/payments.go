package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/brasa-pos/api/internal/enum"
	"github.com/brasa-pos/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler confirms payments and reads settlements. Confirming a
// payment requires an open cash session and triggers sale registration
// exactly once.
type PaymentHandler struct {
	store Dispatcher
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(store Dispatcher) *PaymentHandler {
	return &PaymentHandler{store: store}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/payment
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Confirm)
	r.Get("/", h.Get)
}

type confirmPaymentRequest struct {
	PaymentMethod  string `json:"payment_method"`
	AmountTendered string `json:"amount_tendered"`
	ExactAmount    bool   `json:"exact_amount"`
}

// Confirm handles POST /orders/{id}/payment.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
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
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tendered := decimal.Zero
	if req.PaymentMethod == enum.PaymentMethodCash && !req.ExactAmount {
		if req.AmountTendered == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount_tendered is required for CASH payments"})
			return
		}
		tendered, err = decimal.NewFromString(req.AmountTendered)
		if err != nil || tendered.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount_tendered"})
			return
		}
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.ConfirmPayment{
		OrderID:        id,
		Method:         req.PaymentMethod,
		AmountTendered: tendered,
		ExactAmount:    req.ExactAmount,
		Role:           claims.Role,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]interface{}{
		"order": toOrderResponse(ns.Orders[id], time.Now()),
	}
	if ns.Session != nil {
		resp["session"] = toSessionResponse(*ns.Session)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /orders/{id}/payment.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	if o.Settlement == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order has no settlement"})
		return
	}
	writeJSON(w, http.StatusOK, settlementResponse{
		Method:         o.Settlement.Method,
		Total:          o.Settlement.Total.StringFixed(2),
		AmountTendered: o.Settlement.AmountTendered.StringFixed(2),
		ChangeDue:      o.Settlement.ChangeDue.StringFixed(2),
		ExactAmount:    o.Settlement.ExactAmount,
		At:             o.Settlement.At,
	})
}
