package domain

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatBooked    SeatStatus = "BOOKED"
)

// Seat is the optional per-seat refinement of the capacity counter.
// SeatNumber is unique within an event.
type Seat struct {
	ID         uuid.UUID
	EventID    uuid.UUID
	SeatNumber string
	Status     SeatStatus
	HolderID   *uuid.UUID
	UpdatedAt  time.Time
}
