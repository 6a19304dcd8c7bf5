package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/brasa-pos/api/internal/dispatch"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ProductHandler exposes the read-only catalog plus manual stock
// corrections. Full catalog CRUD lives outside this core.
type ProductHandler struct {
	store Dispatcher
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store Dispatcher) *ProductHandler {
	return &ProductHandler{store: store}
}

type adjustStockRequest struct {
	Delta int32 `json:"delta"`
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	s := h.store.State()
	products := make([]productResponse, 0, len(s.Products))
	for _, p := range s.Products {
		products = append(products, toProductResponse(p))
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// AdjustStock handles POST /products/{id}/stock.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ns, err := h.store.Dispatch(r.Context(), dispatch.AdjustStock{ProductID: id, Delta: req.Delta})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(ns.Products[id]))
}
