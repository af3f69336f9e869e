package domain

import "errors"

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")

	ErrDuplicateBooking    = errors.New("duplicate booking")
	ErrCapacityExhausted   = errors.New("capacity exhausted")
	ErrDeadlinePassed      = errors.New("registration deadline passed")
	ErrInvalidState        = errors.New("invalid reservation state")
	ErrPaymentVerification = errors.New("payment verification failed")

	ErrInvalidToken     = errors.New("invalid check-in token")
	ErrAlreadyCheckedIn = errors.New("already checked in")

	ErrSeatUnavailable    = errors.New("seat unavailable")
	ErrActiveReservations = errors.New("event has active reservations")
)
