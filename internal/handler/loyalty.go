package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// LoyaltyHandler exposes loyalty programs, customers and redemptions.
type LoyaltyHandler struct {
	store Dispatcher
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(store Dispatcher) *LoyaltyHandler {
	return &LoyaltyHandler{store: store}
}

type redeemRequest struct {
	Phone      string `json:"phone"`
	RewardName string `json:"reward_name"`
}

// ListPrograms handles GET /loyalty/programs.
func (h *LoyaltyHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	s := h.store.State()
	programs := make([]programResponse, 0, len(s.Programs))
	for _, p := range s.Programs {
		programs = append(programs, toProgramResponse(p))
	}
	sort.Slice(programs, func(i, j int) bool { return programs[i].Name < programs[j].Name })
	writeJSON(w, http.StatusOK, map[string]interface{}{"programs": programs})
}

// ActivateProgram handles POST /loyalty/programs/{id}/activate.
func (h *LoyaltyHandler) ActivateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid program ID"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.SetActiveLoyaltyProgram{ProgramID: id})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramResponse(ns.Programs[id]))
}

// Redeem handles POST /loyalty/redemptions.
func (h *LoyaltyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Phone == "" || req.RewardName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone and reward_name are required"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.RedeemReward{
		Phone:      req.Phone,
		RewardName: req.RewardName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(ns.Customers[req.Phone]))
}

// GetCustomer handles GET /loyalty/customers/{phone}.
func (h *LoyaltyHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	c, ok := h.store.State().Customers[phone]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}
