package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"eventbooking/internal/domain"
)

const reservationColumns = `id, event_id, user_id, status, check_in_token, payment_ref,
	snapshot_name, snapshot_date, snapshot_location, snapshot_price, snapshot_event_type,
	snapshot_contact_email, snapshot_contact_phone, snapshot_image_url, created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	var token, paymentRef *string
	err := row.Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &token, &paymentRef,
		&res.Snapshot.Name, &res.Snapshot.Date, &res.Snapshot.Location, &res.Snapshot.TicketPrice,
		&res.Snapshot.Type, &res.Snapshot.ContactEmail, &res.Snapshot.ContactPhone,
		&res.Snapshot.ImageURL, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if token != nil {
		res.CheckInToken = *token
	}
	if paymentRef != nil {
		res.PaymentRef = *paymentRef
	}
	res.Snapshot.EventID = res.EventID
	return &res, nil
}

// CreateReservation performs the whole booking step as one serializable
// unit: reclaim stale pending holds for the event, enforce one non-canceled
// reservation per (event, user), take the capacity hold, and record the
// lifecycle event. Either everything commits or nothing does.
func (r *Repository) CreateReservation(ctx context.Context, eventID, userID uuid.UUID, staleBefore time.Time) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := r.expirePendingForEvent(ctx, tx, eventID, staleBefore); err != nil {
			return err
		}

		ev, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
		if err != nil {
			return err
		}
		if ev.Status == domain.EventStatusCancelled || ev.Status == domain.EventStatusCompleted {
			return domain.ErrInvalidState
		}

		created := domain.NewReservation(*ev, userID)

		result, err := tx.Exec(ctx, `
			INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1, $2, $3, $4, NULL, NULL, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (event_id, user_id) WHERE status != 'CANCELED' DO NOTHING
		`, created.ID, created.EventID, created.UserID, created.Status,
			created.Snapshot.Name, created.Snapshot.Date, created.Snapshot.Location,
			created.Snapshot.TicketPrice, created.Snapshot.Type, created.Snapshot.ContactEmail,
			created.Snapshot.ContactPhone, created.Snapshot.ImageURL, created.CreatedAt, created.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return domain.ErrDuplicateBooking
			}
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrDuplicateBooking
		}

		if err := r.tryReserve(ctx, tx, eventID, created.CreatedAt); err != nil {
			return err
		}

		rec := newOutboxRecord("reservation", created.ID, "reservation.created", map[string]interface{}{
			"reservation_id": created.ID,
			"event_id":       created.EventID,
			"user_id":        created.UserID,
		})
		if err := r.insertOutbox(ctx, tx, rec); err != nil {
			return err
		}

		res = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Repository) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return scanReservation(r.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
}

// ConfirmReservation flips PENDING to CONFIRMED, binding the verified
// payment and the check-in token. A unique violation on the token index is
// reported as retryable so the caller can mint a fresh token.
func (r *Repository) ConfirmReservation(ctx context.Context, id uuid.UUID, paymentRef, token string) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE reservations SET status = $2, payment_ref = $3, check_in_token = $4, updated_at = now()
			WHERE id = $1 AND status = $5
			RETURNING `+reservationColumns+`
		`, id, domain.ReservationConfirmed, paymentRef, token, domain.ReservationPending)

		updated, err := scanReservation(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return domain.ErrSerializationFailure
			}
			if errors.Is(err, domain.ErrNotFound) {
				return r.classifyMissedUpdate(ctx, tx, id, domain.ReservationPending)
			}
			return err
		}

		rec := newOutboxRecord("reservation", updated.ID, "reservation.confirmed", map[string]interface{}{
			"reservation_id": updated.ID,
			"event_id":       updated.EventID,
			"payment_ref":    paymentRef,
		})
		if err := r.insertOutbox(ctx, tx, rec); err != nil {
			return err
		}

		res = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CancelReservation releases the slot for a PENDING or CONFIRMED
// reservation. Redeemed tickets cannot be canceled.
func (r *Repository) CancelReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.cancel(ctx, id, "reservation.canceled")
}

// FailReservation is the rollback path after a failed payment verification.
func (r *Repository) FailReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.cancel(ctx, id, "reservation.payment_failed")
}

func (r *Repository) cancel(ctx context.Context, id uuid.UUID, eventType string) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE reservations SET status = $2, updated_at = now()
			WHERE id = $1 AND status IN ($3, $4)
			RETURNING `+reservationColumns+`
		`, id, domain.ReservationCanceled, domain.ReservationPending, domain.ReservationConfirmed)

		updated, err := scanReservation(row)
		if errors.Is(err, domain.ErrNotFound) {
			existing, getErr := scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
			if getErr != nil {
				return getErr
			}
			if existing.Status == domain.ReservationCheckedIn {
				return domain.ErrAlreadyCheckedIn
			}
			return domain.ErrInvalidState
		}
		if err != nil {
			return err
		}

		if err := r.releaseCapacity(ctx, tx, updated.EventID, 1); err != nil {
			return err
		}

		rec := newOutboxRecord("reservation", updated.ID, eventType, map[string]interface{}{
			"reservation_id": updated.ID,
			"event_id":       updated.EventID,
		})
		if err := r.insertOutbox(ctx, tx, rec); err != nil {
			return err
		}

		res = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Repository) classifyMissedUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, wanted domain.ReservationStatus) error {
	existing, err := scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return err
	}
	if existing.Status == wanted {
		return domain.ErrSerializationFailure
	}
	return domain.ErrInvalidState
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Reservation, error) {
	return r.listWhere(ctx, `WHERE user_id = $1`, userID)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return r.listWhere(ctx, ``)
}

func (r *Repository) listWhere(ctx context.Context, where string, args ...interface{}) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reservationColumns+` FROM reservations `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// RedeemToken is the exactly-once gate: the row update predicate ensures a
// concurrent double scan flips the reservation at most once.
func (r *Repository) RedeemToken(ctx context.Context, token string) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE reservations SET status = $2, updated_at = now()
			WHERE check_in_token = $1 AND status = $3
			RETURNING `+reservationColumns+`
		`, token, domain.ReservationCheckedIn, domain.ReservationConfirmed)

		updated, err := scanReservation(row)
		if errors.Is(err, domain.ErrNotFound) {
			existing, getErr := scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE check_in_token = $1`, token))
			if errors.Is(getErr, domain.ErrNotFound) {
				return domain.ErrInvalidToken
			}
			if getErr != nil {
				return getErr
			}
			if existing.Status == domain.ReservationCheckedIn {
				return domain.ErrAlreadyCheckedIn
			}
			return domain.ErrInvalidState
		}
		if err != nil {
			return err
		}

		rec := newOutboxRecord("reservation", updated.ID, "reservation.checked_in", map[string]interface{}{
			"reservation_id": updated.ID,
			"event_id":       updated.EventID,
		})
		if err := r.insertOutbox(ctx, tx, rec); err != nil {
			return err
		}

		res = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExpirePending reclaims capacity from PENDING reservations older than
// staleBefore. Used by the sweep worker; CreateReservation also runs the
// per-event variant lazily.
func (r *Repository) ExpirePending(ctx context.Context, staleBefore time.Time) ([]domain.Reservation, error) {
	var expired []domain.Reservation
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE reservations SET status = $1, updated_at = now()
			WHERE status = $2 AND created_at <= $3
			RETURNING `+reservationColumns+`
		`, domain.ReservationCanceled, domain.ReservationPending, staleBefore)
		if err != nil {
			return err
		}
		defer rows.Close()

		perEvent := map[uuid.UUID]int{}
		for rows.Next() {
			res, err := scanReservation(rows)
			if err != nil {
				return err
			}
			expired = append(expired, *res)
			perEvent[res.EventID]++
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for eventID, n := range perEvent {
			if err := r.releaseCapacity(ctx, tx, eventID, n); err != nil {
				return err
			}
		}
		for _, res := range expired {
			rec := newOutboxRecord("reservation", res.ID, "reservation.expired", map[string]interface{}{
				"reservation_id": res.ID,
				"event_id":       res.EventID,
			})
			if err := r.insertOutbox(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *Repository) expirePendingForEvent(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, staleBefore time.Time) error {
	rows, err := tx.Query(ctx, `
		UPDATE reservations SET status = $1, updated_at = now()
		WHERE event_id = $2 AND status = $3 AND created_at <= $4
		RETURNING id
	`, domain.ReservationCanceled, eventID, domain.ReservationPending, staleBefore)
	if err != nil {
		return err
	}
	defer rows.Close()

	var expired []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		expired = append(expired, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if len(expired) == 0 {
		return nil
	}
	if err := r.releaseCapacity(ctx, tx, eventID, len(expired)); err != nil {
		return err
	}
	// Same audit record the sweep writes: the trail must not depend on which
	// path reclaimed the hold.
	for _, id := range expired {
		rec := newOutboxRecord("reservation", id, "reservation.expired", map[string]interface{}{
			"reservation_id": id,
			"event_id":       eventID,
		})
		if err := r.insertOutbox(ctx, tx, rec); err != nil {
			return err
		}
	}
	return nil
}

// CountActiveReservations counts CONFIRMED and CHECKED_IN reservations for
// an event. The seat reset guard depends on it.
func (r *Repository) CountActiveReservations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM reservations WHERE event_id = $1 AND status IN ($2, $3)
	`, eventID, domain.ReservationConfirmed, domain.ReservationCheckedIn).Scan(&n)
	return n, err
}
