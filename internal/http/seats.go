package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventbooking/internal/domain"
)

func (h *Handlers) ListSeats(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	seats, err := h.repo.ListSeats(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(seats))
	for _, s := range seats {
		entry := map[string]interface{}{
			"seat_no": s.SeatNumber,
			"status":  s.Status,
		}
		if s.HolderID != nil {
			entry["holder_id"] = *s.HolderID
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"seats": out})
}

// SeedSeats provisions the per-seat rows for an event. Administrative;
// capacity stays the counter on the event, seats refine it.
func (h *Handlers) SeedSeats(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	var req struct {
		SeatNumbers []string `json:"seat_numbers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SeatNumbers) == 0 {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	if err := h.repo.SeedSeats(r.Context(), eventID, req.SeatNumbers); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"event_id": eventID,
		"seats":    len(req.SeatNumbers),
	})
}

func (h *Handlers) HoldSeat(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	var req struct {
		SeatNo string `json:"seat_no"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SeatNo == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	if err := h.repo.HoldSeat(r.Context(), eventID, req.SeatNo, principal.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seat_no": req.SeatNo,
		"status":  domain.SeatHeld,
	})
}

// ConfirmSeat fixes a held seat after the reservation is paid.
func (h *Handlers) ConfirmSeat(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	var req struct {
		SeatNo string `json:"seat_no"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SeatNo == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	if err := h.repo.ConfirmSeat(r.Context(), eventID, req.SeatNo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seat_no": req.SeatNo,
		"status":  domain.SeatBooked,
	})
}

// ReleaseSeat returns a seat to the pool, whatever state it is in.
func (h *Handlers) ReleaseSeat(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	var req struct {
		SeatNo string `json:"seat_no"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SeatNo == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	if err := h.repo.ReleaseSeat(r.Context(), eventID, req.SeatNo); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seat_no": req.SeatNo,
		"status":  domain.SeatAvailable,
	})
}

// ResetSeats is administrative and refuses to run against an event with
// active confirmed or checked-in reservations.
func (h *Handlers) ResetSeats(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	if err := h.repo.ResetSeats(r.Context(), eventID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"event_id": eventID, "reset": true})
}
