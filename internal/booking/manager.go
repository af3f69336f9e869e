// Package booking orchestrates the reservation lifecycle: capacity holds,
// payment-gated confirmation, cancellation, and the listing reads.
package booking

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"eventbooking/internal/checkin"
	"eventbooking/internal/domain"
	"eventbooking/internal/observability"
)

// Store is the transactional storage contract the manager drives. Each
// method is a single atomic unit; CreateReservation combines the duplicate
// check and the capacity decrement, RedeemToken-style predicates guard the
// state transitions.
type Store interface {
	CreateReservation(ctx context.Context, eventID, userID uuid.UUID, staleBefore time.Time) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ConfirmReservation(ctx context.Context, id uuid.UUID, paymentRef, token string) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	FailReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)
}

// Verifier authenticates a payment claim.
type Verifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type Manager struct {
	store      Store
	verifier   Verifier
	logger     observability.Logger
	pendingTTL time.Duration
	now        func() time.Time
}

func NewManager(store Store, verifier Verifier, logger observability.Logger, pendingTTL time.Duration) *Manager {
	return &Manager{
		store:      store,
		verifier:   verifier,
		logger:     logger,
		pendingTTL: pendingTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

const maxTxAttempts = 3

// Create books one slot for the caller. Stale pending holds for the event
// are reclaimed first, so abandoned checkouts cannot leak capacity.
func (m *Manager) Create(ctx context.Context, eventID uuid.UUID, principal domain.Principal) (*domain.Reservation, error) {
	res, err := m.retry(func() (*domain.Reservation, error) {
		return m.store.CreateReservation(ctx, eventID, principal.UserID, m.now().Add(-m.pendingTTL))
	})
	observability.ReservationsTotal.WithLabelValues(createOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	m.logger.WithField("reservation_id", res.ID).WithField("event_id", eventID).Info("reservation created")
	return res, nil
}

func createOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrDuplicateBooking):
		return "duplicate"
	case errors.Is(err, domain.ErrCapacityExhausted):
		return "capacity_exhausted"
	case errors.Is(err, domain.ErrDeadlinePassed):
		return "deadline_passed"
	default:
		return "error"
	}
}

// Confirm finalizes a pending reservation against a payment claim. On a
// failed verification the capacity hold is released and the reservation is
// canceled; the claim is never retried.
func (m *Manager) Confirm(ctx context.Context, reservationID uuid.UUID, claim domain.PaymentClaim, principal domain.Principal) (*domain.Reservation, error) {
	res, err := m.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := m.authorize(res, principal); err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationPending {
		return nil, domain.ErrInvalidState
	}

	if !m.verifier.Verify(claim.OrderID, claim.PaymentID, claim.Signature) {
		if _, failErr := m.retry(func() (*domain.Reservation, error) {
			return m.store.FailReservation(ctx, reservationID)
		}); failErr != nil && !errors.Is(failErr, domain.ErrInvalidState) {
			m.logger.WithField("reservation_id", reservationID).Error("rollback after failed verification", failErr)
		}
		return nil, domain.ErrPaymentVerification
	}

	confirmed, err := m.retry(func() (*domain.Reservation, error) {
		// Fresh token per attempt: a retry may mean the previous token
		// collided with an existing one.
		token, err := checkin.NewToken()
		if err != nil {
			return nil, err
		}
		return m.store.ConfirmReservation(ctx, reservationID, claim.PaymentID, token)
	})
	if err != nil {
		return nil, err
	}
	m.logger.WithField("reservation_id", confirmed.ID).Info("reservation confirmed")
	return confirmed, nil
}

// Cancel releases the caller's slot. Only the owner (or an admin) may
// cancel, and only before check-in.
func (m *Manager) Cancel(ctx context.Context, reservationID uuid.UUID, principal domain.Principal) (*domain.Reservation, error) {
	res, err := m.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := m.authorize(res, principal); err != nil {
		return nil, err
	}

	canceled, err := m.retry(func() (*domain.Reservation, error) {
		return m.store.CancelReservation(ctx, reservationID)
	})
	if err != nil {
		return nil, err
	}
	m.logger.WithField("reservation_id", canceled.ID).Info("reservation canceled")
	return canceled, nil
}

func (m *Manager) List(ctx context.Context, principal domain.Principal) ([]domain.Reservation, error) {
	return m.store.ListByUser(ctx, principal.UserID)
}

func (m *Manager) ListAll(ctx context.Context, principal domain.Principal) ([]domain.Reservation, error) {
	if !principal.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return m.store.ListAll(ctx)
}

func (m *Manager) authorize(res *domain.Reservation, principal domain.Principal) error {
	if res.UserID != principal.UserID && !principal.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// retry reruns fn on serialization failures; all store operations are
// single atomic units, so a full rerun is safe.
func (m *Manager) retry(fn func() (*domain.Reservation, error)) (*domain.Reservation, error) {
	var res *domain.Reservation
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		res, err = fn()
		if !errors.Is(err, domain.ErrSerializationFailure) {
			return res, err
		}
	}
	return res, err
}
