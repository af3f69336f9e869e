package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeConference EventType = "Conference"
	EventTypeWorkshop   EventType = "Workshop"
	EventTypeMeetup     EventType = "Meetup"
	EventTypeSeminar    EventType = "Seminar"
	EventTypeHackathon  EventType = "Hackathon"
	EventTypeConcert    EventType = "Concert"
	EventTypeOther      EventType = "Other"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeConference, EventTypeWorkshop, EventTypeMeetup,
		EventTypeSeminar, EventTypeHackathon, EventTypeConcert, EventTypeOther:
		return true
	}
	return false
}

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "Upcoming"
	EventStatusOngoing   EventStatus = "Ongoing"
	EventStatusCompleted EventStatus = "Completed"
	EventStatusCancelled EventStatus = "Cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event is a capacity-bounded resource. CapacityRemaining is owned by the
// storage layer and only moves through TryReserve/ReleaseCapacity.
type Event struct {
	ID                   uuid.UUID
	Name                 string
	Description          string
	Date                 time.Time
	Location             string
	OrganizerID          uuid.UUID
	Type                 EventType
	Status               EventStatus
	CapacityTotal        int
	CapacityRemaining    int
	RegistrationDeadline time.Time
	TicketPrice          float64
	ContactEmail         string
	ContactPhone         string
	ImageURL             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func NewEvent(name, description, location string, organizerID uuid.UUID, date, deadline time.Time, typ EventType, capacity int, price float64, contactEmail, contactPhone, imageURL string) Event {
	now := time.Now().UTC()
	return Event{
		ID:                   uuid.New(),
		Name:                 name,
		Description:          description,
		Date:                 date,
		Location:             location,
		OrganizerID:          organizerID,
		Type:                 typ,
		Status:               EventStatusUpcoming,
		CapacityTotal:        capacity,
		CapacityRemaining:    capacity,
		RegistrationDeadline: deadline,
		TicketPrice:          price,
		ContactEmail:         contactEmail,
		ContactPhone:         contactPhone,
		ImageURL:             imageURL,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Snapshot freezes the event terms a ticket was sold under.
func (e Event) Snapshot() EventSnapshot {
	return EventSnapshot{
		EventID:      e.ID,
		Name:         e.Name,
		Date:         e.Date,
		Location:     e.Location,
		TicketPrice:  e.TicketPrice,
		Type:         e.Type,
		ContactEmail: e.ContactEmail,
		ContactPhone: e.ContactPhone,
		ImageURL:     e.ImageURL,
	}
}
