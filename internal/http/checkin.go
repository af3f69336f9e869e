package http

import (
	"encoding/json"
	"net/http"

	"eventbooking/internal/domain"
)

// CheckIn redeems a check-in token. Privileged: the scanner at the gate
// runs with the admin role. A double scan gets a clean 409, not a crash.
func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	res, err := h.registry.Redeem(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservation_id": res.ID,
		"event_id":       res.EventID,
		"status":         res.Status,
	})
}
