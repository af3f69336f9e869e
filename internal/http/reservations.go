package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventbooking/internal/domain"
	"eventbooking/internal/idempotency"
)

func reservationBody(res *domain.Reservation) map[string]interface{} {
	body := map[string]interface{}{
		"reservation_id": res.ID,
		"event_id":       res.EventID,
		"status":         res.Status,
		"event": map[string]interface{}{
			"name":     res.Snapshot.Name,
			"date":     res.Snapshot.Date.Format(time.RFC3339),
			"location": res.Snapshot.Location,
			"price":    res.Snapshot.TicketPrice,
			"type":     res.Snapshot.Type,
		},
		"created_at": res.CreatedAt.Format(time.RFC3339),
	}
	if res.CheckInToken != "" {
		body["check_in_token"] = res.CheckInToken
	}
	return body
}

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if h.replayIdempotent(w, r, key) {
		return
	}

	var req struct {
		EventID uuid.UUID `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == uuid.Nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	res, err := h.manager.Create(r.Context(), req.EventID, principal)
	if err != nil {
		writeError(w, err)
		return
	}

	data := writeJSON(w, http.StatusCreated, reservationBody(res))
	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
}

func (h *Handlers) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if h.replayIdempotent(w, r, key) {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	claim := domain.PaymentClaim{OrderID: req.OrderID, PaymentID: req.PaymentID, Signature: req.Signature}
	res, err := h.manager.Confirm(r.Context(), id, claim, principal)
	if err != nil {
		writeError(w, err)
		return
	}

	data := writeJSON(w, http.StatusOK, reservationBody(res))
	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusOK, Result: data})
}

func (h *Handlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	res, err := h.manager.Cancel(r.Context(), id, principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservation_id": res.ID,
		"status":         res.Status,
	})
}

func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	list, err := h.manager.List(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeReservationList(w, list)
}

func (h *Handlers) ListAllReservations(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	list, err := h.manager.ListAll(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeReservationList(w, list)
}

func writeReservationList(w http.ResponseWriter, list []domain.Reservation) {
	out := make([]map[string]interface{}, 0, len(list))
	for i := range list {
		out = append(out, reservationBody(&list[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reservations": out})
}

// replayIdempotent writes the stored response for a repeated key and
// reports whether it did.
func (h *Handlers) replayIdempotent(w http.ResponseWriter, r *http.Request, key string) bool {
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		h.logger.Error("idempotency lookup failed", err)
		return false
	}
	if existing == nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(existing.Status)
	w.Write(existing.Result)
	return true
}
