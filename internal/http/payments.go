package http

import (
	"encoding/json"
	"math"
	"net/http"

	"eventbooking/internal/domain"
)

// CreatePaymentOrder asks the gateway for a payment challenge. The client
// completes the payment externally and comes back through confirm with the
// signed claim.
func (h *Handlers) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount < 0 || req.Currency == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	// Gateways take minor units. Round, don't truncate: 19.99*100 is
	// 1998.999... in float64.
	order, err := h.gateway.CreateOrder(r.Context(), int64(math.Round(req.Amount*100)), req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order_id": order.OrderID,
		"amount":   order.AmountMinor,
		"currency": order.Currency,
		"receipt":  order.Receipt,
	})
}
