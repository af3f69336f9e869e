package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eventbooking/internal/domain"
)

const eventColumns = `id, name, description, date, location, organizer_id, event_type, status,
	capacity_total, capacity_remaining, registration_deadline, ticket_price,
	contact_email, contact_phone, image_url, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var ev domain.Event
	err := row.Scan(&ev.ID, &ev.Name, &ev.Description, &ev.Date, &ev.Location, &ev.OrganizerID,
		&ev.Type, &ev.Status, &ev.CapacityTotal, &ev.CapacityRemaining, &ev.RegistrationDeadline,
		&ev.TicketPrice, &ev.ContactEmail, &ev.ContactPhone, &ev.ImageURL, &ev.CreatedAt, &ev.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *Repository) CreateEvent(ctx context.Context, ev domain.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, ev.ID, ev.Name, ev.Description, ev.Date, ev.Location, ev.OrganizerID, ev.Type, ev.Status,
		ev.CapacityTotal, ev.CapacityRemaining, ev.RegistrationDeadline, ev.TicketPrice,
		ev.ContactEmail, ev.ContactPhone, ev.ImageURL, ev.CreatedAt, ev.UpdatedAt)
	return err
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

func (r *Repository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// UpdateEvent changes descriptive fields only. Capacity moves exclusively
// through tryReserve/releaseCapacity.
func (r *Repository) UpdateEvent(ctx context.Context, ev domain.Event) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE events SET name = $2, description = $3, date = $4, location = $5,
			event_type = $6, status = $7, registration_deadline = $8, ticket_price = $9,
			contact_email = $10, contact_phone = $11, image_url = $12, updated_at = now()
		WHERE id = $1
	`, ev.ID, ev.Name, ev.Description, ev.Date, ev.Location, ev.Type, ev.Status,
		ev.RegistrationDeadline, ev.TicketPrice, ev.ContactEmail, ev.ContactPhone, ev.ImageURL)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CancelEvent soft-cancels. Events with reservations against them are never
// hard-deleted.
func (r *Repository) CancelEvent(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE events SET status = $2, updated_at = now() WHERE id = $1
	`, id, domain.EventStatusCancelled)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// tryReserve is the capacity hold: a single check-and-decrement. Zero rows
// means no room, a passed deadline, or an unknown event; a follow-up read
// disambiguates.
func (r *Repository) tryReserve(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, now time.Time) error {
	result, err := tx.Exec(ctx, `
		UPDATE events SET capacity_remaining = capacity_remaining - 1, updated_at = now()
		WHERE id = $1 AND capacity_remaining > 0 AND registration_deadline > $2
	`, eventID, now)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 1 {
		return nil
	}

	ev, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
	if err != nil {
		return err
	}
	if !ev.RegistrationDeadline.After(now) {
		return domain.ErrDeadlinePassed
	}
	return domain.ErrCapacityExhausted
}

// releaseCapacity returns n slots, clamped to the total so an out-of-band
// release can never inflate capacity.
func (r *Repository) releaseCapacity(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, n int) error {
	result, err := tx.Exec(ctx, `
		UPDATE events SET capacity_remaining = LEAST(capacity_remaining + $2, capacity_total), updated_at = now()
		WHERE id = $1
	`, eventID, n)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
