package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventbooking/internal/domain"
)

type eventRequest struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Date                 string  `json:"date"`
	Location             string  `json:"location"`
	Type                 string  `json:"event_type"`
	Capacity             int     `json:"capacity"`
	RegistrationDeadline string  `json:"registration_deadline"`
	TicketPrice          float64 `json:"ticket_price"`
	ContactEmail         string  `json:"contact_email"`
	ContactPhone         string  `json:"contact_phone"`
	ImageURL             string  `json:"image_url"`
}

func (req eventRequest) validate() (date, deadline time.Time, err error) {
	if req.Name == "" || req.Location == "" || req.ContactEmail == "" || req.Capacity < 0 {
		return date, deadline, domain.ErrInvalidInput
	}
	if !domain.EventType(req.Type).Valid() {
		return date, deadline, domain.ErrInvalidInput
	}
	date, err = time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return date, deadline, domain.ErrInvalidInput
	}
	deadline, err = time.Parse(time.RFC3339, req.RegistrationDeadline)
	if err != nil {
		return date, deadline, domain.ErrInvalidInput
	}
	return date, deadline, nil
}

func eventBody(ev *domain.Event) map[string]interface{} {
	return map[string]interface{}{
		"event_id":              ev.ID,
		"name":                  ev.Name,
		"description":           ev.Description,
		"date":                  ev.Date.Format(time.RFC3339),
		"location":              ev.Location,
		"event_type":            ev.Type,
		"status":                ev.Status,
		"capacity_total":        ev.CapacityTotal,
		"capacity_remaining":    ev.CapacityRemaining,
		"registration_deadline": ev.RegistrationDeadline.Format(time.RFC3339),
		"ticket_price":          ev.TicketPrice,
		"contact_email":         ev.ContactEmail,
		"contact_phone":         ev.ContactPhone,
		"image_url":             ev.ImageURL,
	}
}

const eventListCacheKey = "events:list"

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r)

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	date, deadline, err := req.validate()
	if err != nil {
		writeError(w, err)
		return
	}

	ev := domain.NewEvent(req.Name, req.Description, req.Location, principal.UserID, date, deadline,
		domain.EventType(req.Type), req.Capacity, req.TicketPrice, req.ContactEmail, req.ContactPhone, req.ImageURL)
	if err := h.repo.CreateEvent(r.Context(), ev); err != nil {
		writeError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), eventListCacheKey)

	writeJSON(w, http.StatusCreated, eventBody(&ev))
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	var cached []map[string]interface{}
	if hit, err := h.cache.GetJSON(r.Context(), eventListCacheKey, &cached); err == nil && hit {
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": cached})
		return
	}

	events, err := h.repo.ListEvents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(events))
	for i := range events {
		out = append(out, eventBody(&events[i]))
	}
	h.cache.SetJSON(r.Context(), eventListCacheKey, out, 30*time.Second)
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	ev, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventBody(ev))
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}

	ev, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	date, deadline, err := req.validate()
	if err != nil {
		writeError(w, err)
		return
	}

	ev.Name = req.Name
	ev.Description = req.Description
	ev.Date = date
	ev.Location = req.Location
	ev.Type = domain.EventType(req.Type)
	ev.RegistrationDeadline = deadline
	ev.TicketPrice = req.TicketPrice
	ev.ContactEmail = req.ContactEmail
	ev.ContactPhone = req.ContactPhone
	ev.ImageURL = req.ImageURL

	if err := h.repo.UpdateEvent(r.Context(), *ev); err != nil {
		writeError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), eventListCacheKey)
	writeJSON(w, http.StatusOK, eventBody(ev))
}

// DeleteEvent soft-cancels: reservations may still reference the event, so
// the row stays.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.repo.CancelEvent(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), eventListCacheKey)
	writeJSON(w, http.StatusOK, map[string]interface{}{"event_id": id, "status": domain.EventStatusCancelled})
}
