package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"eventbooking/internal/domain"
)

// SeedSeats creates the per-seat rows when seat-level tracking is enabled
// for an event. Seat numbers are unique per event.
func (r *Repository) SeedSeats(ctx context.Context, eventID uuid.UUID, seatNumbers []string) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for _, no := range seatNumbers {
			_, err := tx.Exec(ctx, `
				INSERT INTO seats (id, event_id, seat_no, status, holder_id, updated_at)
				VALUES ($1, $2, $3, $4, NULL, now())
			`, uuid.New(), eventID, no, domain.SeatAvailable)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
					return domain.ErrSeatUnavailable
				}
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListSeats(ctx context.Context, eventID uuid.UUID) ([]domain.Seat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, seat_no, status, holder_id, updated_at
		FROM seats WHERE event_id = $1 ORDER BY seat_no ASC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.Status, &s.HolderID, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// HoldSeat is a compare-and-swap from AVAILABLE to HELD.
func (r *Repository) HoldSeat(ctx context.Context, eventID uuid.UUID, seatNo string, holder uuid.UUID) error {
	return r.seatCAS(ctx, `
		UPDATE seats SET status = $3, holder_id = $4, updated_at = now()
		WHERE event_id = $1 AND seat_no = $2 AND status = $5
	`, eventID, seatNo, domain.SeatHeld, holder, domain.SeatAvailable)
}

// ConfirmSeat moves HELD to BOOKED, keeping the holder.
func (r *Repository) ConfirmSeat(ctx context.Context, eventID uuid.UUID, seatNo string) error {
	return r.seatCAS(ctx, `
		UPDATE seats SET status = $3, updated_at = now()
		WHERE event_id = $1 AND seat_no = $2 AND status = $4
	`, eventID, seatNo, domain.SeatBooked, domain.SeatHeld)
}

// ReleaseSeat returns a seat to AVAILABLE from any state and clears the
// holder.
func (r *Repository) ReleaseSeat(ctx context.Context, eventID uuid.UUID, seatNo string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE seats SET status = $3, holder_id = NULL, updated_at = now()
		WHERE event_id = $1 AND seat_no = $2
	`, eventID, seatNo, domain.SeatAvailable)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) seatCAS(ctx context.Context, sql string, args ...interface{}) error {
	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrSeatUnavailable
	}
	return nil
}

// ResetSeats bulk-resets an event's seats to AVAILABLE. It refuses to run
// while the event has CONFIRMED or CHECKED_IN reservations, so a reset can
// never silently orphan real bookings.
func (r *Repository) ResetSeats(ctx context.Context, eventID uuid.UUID) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		var active int
		err := tx.QueryRow(ctx, `
			SELECT count(*) FROM reservations WHERE event_id = $1 AND status IN ($2, $3)
		`, eventID, domain.ReservationConfirmed, domain.ReservationCheckedIn).Scan(&active)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrActiveReservations
		}

		_, err = tx.Exec(ctx, `
			UPDATE seats SET status = $2, holder_id = NULL, updated_at = now()
			WHERE event_id = $1
		`, eventID, domain.SeatAvailable)
		return err
	})
}
