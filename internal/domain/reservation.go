package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCheckedIn ReservationStatus = "CHECKED_IN"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

// CanTransitionTo encodes the reservation state machine:
// PENDING -> CONFIRMED -> CHECKED_IN, with cancellation allowed from
// PENDING and CONFIRMED. CHECKED_IN and CANCELED are terminal.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return next == ReservationConfirmed || next == ReservationCanceled
	case ReservationConfirmed:
		return next == ReservationCheckedIn || next == ReservationCanceled
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return s == ReservationCheckedIn || s == ReservationCanceled
}

// EventSnapshot is the denormalized copy of event terms taken at booking
// time. A later event edit must not change what an issued ticket says.
type EventSnapshot struct {
	EventID      uuid.UUID
	Name         string
	Date         time.Time
	Location     string
	TicketPrice  float64
	Type         EventType
	ContactEmail string
	ContactPhone string
	ImageURL     string
}

// Reservation binds one user to one event slot. At most one non-canceled
// reservation exists per (event, user); the storage layer enforces it.
type Reservation struct {
	ID           uuid.UUID
	EventID      uuid.UUID
	UserID       uuid.UUID
	Status       ReservationStatus
	Snapshot     EventSnapshot
	CheckInToken string // set once CONFIRMED
	PaymentRef   string // verified payment id, set once CONFIRMED
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewReservation(event Event, userID uuid.UUID) Reservation {
	now := time.Now().UTC()
	return Reservation{
		ID:        uuid.New(),
		EventID:   event.ID,
		UserID:    userID,
		Status:    ReservationPending,
		Snapshot:  event.Snapshot(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Principal is the pre-validated caller identity injected by the auth
// middleware. The core trusts it and never re-derives it.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

const (
	RoleAdmin    = "admin"
	RoleAttendee = "attendee"
)

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
