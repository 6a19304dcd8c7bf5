package handler

import (
	"encoding/json"
	"net/http"

	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// TillHandler exposes the cash-session ledger.
type TillHandler struct {
	store Dispatcher
}

// NewTillHandler creates a new TillHandler.
func NewTillHandler(store Dispatcher) *TillHandler {
	return &TillHandler{store: store}
}

// RegisterRoutes registers cash-session endpoints on the given Chi router.
// Expected to be mounted at /cash-sessions
func (h *TillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Open)
	r.Get("/", h.ListClosed)
	r.Get("/current", h.Current)
	r.Post("/current/movements", h.AddMovement)
	r.Post("/current/close", h.Close)
}

type openSessionRequest struct {
	OpeningFloat string `json:"opening_float"`
}

type addMovementRequest struct {
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type closeSessionRequest struct {
	CountedCash string `json:"counted_cash"`
}

// Open handles POST /cash-sessions.
func (h *TillHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	openingFloat, err := decimal.NewFromString(req.OpeningFloat)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid opening_float"})
		return
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.OpenCashSession{OpeningFloat: openingFloat})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(*ns.Session))
}

// Current handles GET /cash-sessions/current.
func (h *TillHandler) Current(w http.ResponseWriter, r *http.Request) {
	s := h.store.State()
	if s.Session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no open cash session"})
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*s.Session))
}

// ListClosed handles GET /cash-sessions.
func (h *TillHandler) ListClosed(w http.ResponseWriter, r *http.Request) {
	s := h.store.State()
	sessions := make([]sessionResponse, len(s.ClosedSessions))
	for i, sess := range s.ClosedSessions {
		sessions[i] = toSessionResponse(sess)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// AddMovement handles POST /cash-sessions/current/movements.
func (h *TillHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	var req addMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.AddCashMovement{
		Direction:   req.Direction,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(*ns.Session))
}

// Close handles POST /cash-sessions/current/close. The response carries
// the exact variance plus its presentation label.
func (h *TillHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req closeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	countedCash, err := decimal.NewFromString(req.CountedCash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid counted_cash"})
		return
	}

	ns, err := h.store.Dispatch(r.Context(), dispatch.CloseCashSession{CountedCash: countedCash})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	closed := ns.ClosedSessions[len(ns.ClosedSessions)-1]
	writeJSON(w, http.StatusOK, toSessionResponse(closed))
}
