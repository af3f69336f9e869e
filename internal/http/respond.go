package http

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"

	"eventbooking/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) []byte {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	return data
}

// writeError maps the domain error taxonomy onto HTTP statuses. Every core
// failure is a typed result; nothing here is fatal to the process.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidToken):
		errorJSON(w, http.StatusNotFound, "invalid token")
	case errors.Is(err, domain.ErrInvalidInput):
		errorJSON(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrDeadlinePassed):
		errorJSON(w, http.StatusBadRequest, "registration deadline passed")
	case errors.Is(err, domain.ErrForbidden):
		errorJSON(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrDuplicateBooking):
		errorJSON(w, http.StatusConflict, "duplicate booking")
	case errors.Is(err, domain.ErrCapacityExhausted):
		errorJSON(w, http.StatusConflict, "capacity exhausted")
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		errorJSON(w, http.StatusConflict, "already checked in")
	case errors.Is(err, domain.ErrInvalidState):
		errorJSON(w, http.StatusConflict, "invalid state")
	case errors.Is(err, domain.ErrSeatUnavailable):
		errorJSON(w, http.StatusConflict, "seat unavailable")
	case errors.Is(err, domain.ErrActiveReservations):
		errorJSON(w, http.StatusConflict, "event has active reservations")
	case errors.Is(err, domain.ErrSerializationFailure):
		errorJSON(w, http.StatusConflict, "conflict, try again")
	case errors.Is(err, domain.ErrPaymentVerification):
		errorJSON(w, http.StatusPaymentRequired, "payment verification failed")
	default:
		errorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
