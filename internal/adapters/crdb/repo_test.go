package crdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"eventbooking/internal/adapters/crdb"
	"eventbooking/internal/domain"
)

const schema = `
	CREATE DATABASE IF NOT EXISTS eventbooking;
	CREATE TABLE IF NOT EXISTS eventbooking.events (
		id UUID PRIMARY KEY,
		name TEXT,
		description TEXT,
		date TIMESTAMPTZ,
		location TEXT,
		organizer_id UUID,
		event_type TEXT,
		status TEXT CHECK (status IN ('Upcoming', 'Ongoing', 'Completed', 'Cancelled')),
		capacity_total INT,
		capacity_remaining INT,
		registration_deadline TIMESTAMPTZ,
		ticket_price FLOAT,
		contact_email TEXT,
		contact_phone TEXT,
		image_url TEXT,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ
	);
	CREATE TABLE IF NOT EXISTS eventbooking.reservations (
		id UUID PRIMARY KEY,
		event_id UUID,
		user_id UUID,
		status TEXT CHECK (status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN', 'CANCELED')),
		check_in_token TEXT,
		payment_ref TEXT,
		snapshot_name TEXT,
		snapshot_date TIMESTAMPTZ,
		snapshot_location TEXT,
		snapshot_price FLOAT,
		snapshot_event_type TEXT,
		snapshot_contact_email TEXT,
		snapshot_contact_phone TEXT,
		snapshot_image_url TEXT,
		created_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ,
		UNIQUE (event_id, user_id) WHERE status != 'CANCELED',
		UNIQUE (check_in_token) WHERE check_in_token IS NOT NULL
	);
	CREATE TABLE IF NOT EXISTS eventbooking.seats (
		id UUID PRIMARY KEY,
		event_id UUID,
		seat_no TEXT,
		status TEXT CHECK (status IN ('AVAILABLE', 'HELD', 'BOOKED')),
		holder_id UUID,
		updated_at TIMESTAMPTZ,
		UNIQUE (event_id, seat_no)
	);
	CREATE TABLE IF NOT EXISTS eventbooking.outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT,
		aggregate_id UUID,
		event_type TEXT,
		payload_json JSONB,
		created_at TIMESTAMPTZ DEFAULT now(),
		published_at TIMESTAMPTZ,
		status TEXT CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
		dedupe_key TEXT
	);
`

func setupRepo(t *testing.T) (*crdb.Repository, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	dsn, err := container.Endpoint(ctx, "postgresql")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, dsn+"/eventbooking?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatal(err)
	}

	return crdb.NewRepository(pool), pool
}

func createEvent(t *testing.T, repo *crdb.Repository, capacity int, deadline time.Time) domain.Event {
	t.Helper()
	ev := domain.NewEvent("Repo Test Event", "", "Test Hall", uuid.New(),
		deadline.Add(24*time.Hour), deadline, domain.EventTypeConcert, capacity, 25.0, "ops@example.com", "", "")
	if err := repo.CreateEvent(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestRepository_CreateReservation(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	ev := createEvent(t, repo, 2, time.Now().Add(time.Hour))
	staleBefore := time.Now().Add(-15 * time.Minute)
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()

	res, err := repo.CreateReservation(ctx, ev.ID, userA, staleBefore)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Status != domain.ReservationPending {
		t.Errorf("expected PENDING, got %s", res.Status)
	}
	if res.Snapshot.Name != ev.Name {
		t.Errorf("expected snapshot of event terms, got %q", res.Snapshot.Name)
	}

	if _, err := repo.CreateReservation(ctx, ev.ID, userA, staleBefore); !errors.Is(err, domain.ErrDuplicateBooking) {
		t.Errorf("expected duplicate booking error, got %v", err)
	}

	if _, err := repo.CreateReservation(ctx, ev.ID, userB, staleBefore); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := repo.CreateReservation(ctx, ev.ID, userC, staleBefore); !errors.Is(err, domain.ErrCapacityExhausted) {
		t.Errorf("expected capacity exhausted, got %v", err)
	}

	got, err := repo.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CapacityRemaining != 0 {
		t.Errorf("expected 0 remaining, got %d", got.CapacityRemaining)
	}

	// Cancellation returns the slot and unblocks the waiting user.
	if _, err := repo.CancelReservation(ctx, res.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateReservation(ctx, ev.ID, userC, staleBefore); err != nil {
		t.Errorf("expected rebooking after cancel, got %v", err)
	}
}

func TestRepository_CreateReservationDeadline(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	ev := createEvent(t, repo, 5, time.Now().Add(-time.Minute))

	_, err := repo.CreateReservation(ctx, ev.ID, uuid.New(), time.Now().Add(-15*time.Minute))
	if !errors.Is(err, domain.ErrDeadlinePassed) {
		t.Errorf("expected deadline passed, got %v", err)
	}
}

func TestRepository_ConfirmAndRedeem(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	ev := createEvent(t, repo, 2, time.Now().Add(time.Hour))
	staleBefore := time.Now().Add(-15 * time.Minute)

	res, err := repo.CreateReservation(ctx, ev.ID, uuid.New(), staleBefore)
	if err != nil {
		t.Fatal(err)
	}

	const token = "a3f1c2d4e5b6a7f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f70"
	confirmed, err := repo.ConfirmReservation(ctx, res.ID, "pay_42", token)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed.Status != domain.ReservationConfirmed || confirmed.CheckInToken != token {
		t.Errorf("expected CONFIRMED with token, got %s %q", confirmed.Status, confirmed.CheckInToken)
	}

	// Confirming twice is a state error, not a retry.
	if _, err := repo.ConfirmReservation(ctx, res.ID, "pay_42", token); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}

	redeemed, err := repo.RedeemToken(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if redeemed.Status != domain.ReservationCheckedIn {
		t.Errorf("expected CHECKED_IN, got %s", redeemed.Status)
	}

	if _, err := repo.RedeemToken(ctx, token); !errors.Is(err, domain.ErrAlreadyCheckedIn) {
		t.Errorf("expected already checked in, got %v", err)
	}
	if _, err := repo.RedeemToken(ctx, "0000000000000000000000000000000000000000000000000000000000000000"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected invalid token, got %v", err)
	}

	// Redeemed tickets are terminal.
	if _, err := repo.CancelReservation(ctx, res.ID); !errors.Is(err, domain.ErrAlreadyCheckedIn) {
		t.Errorf("expected cancel to be refused, got %v", err)
	}
}

func TestRepository_ExpirePending(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()

	ev := createEvent(t, repo, 1, time.Now().Add(time.Hour))
	staleBefore := time.Now().Add(-15 * time.Minute)

	res, err := repo.CreateReservation(ctx, ev.ID, uuid.New(), staleBefore)
	if err != nil {
		t.Fatal(err)
	}

	// Age the hold past the TTL.
	if _, err := pool.Exec(ctx, `UPDATE reservations SET created_at = $2 WHERE id = $1`,
		res.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	expired, err := repo.ExpirePending(ctx, time.Now().Add(-15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(expired) != 1 || expired[0].ID != res.ID {
		t.Fatalf("expected the stale hold to expire, got %d rows", len(expired))
	}

	got, err := repo.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CapacityRemaining != 1 {
		t.Errorf("expected capacity restored to 1, got %d", got.CapacityRemaining)
	}

	// A fresh buyer takes the reclaimed slot.
	if _, err := repo.CreateReservation(ctx, ev.ID, uuid.New(), staleBefore); err != nil {
		t.Errorf("expected booking after expiry, got %v", err)
	}
}

func TestRepository_LazyExpiryWritesAuditRecord(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()

	ev := createEvent(t, repo, 1, time.Now().Add(time.Hour))
	staleBefore := time.Now().Add(-15 * time.Minute)

	stale, err := repo.CreateReservation(ctx, ev.ID, uuid.New(), staleBefore)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `UPDATE reservations SET created_at = $2 WHERE id = $1`,
		stale.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	// The next booking reclaims the stale hold in its own transaction.
	if _, err := repo.CreateReservation(ctx, ev.ID, uuid.New(), staleBefore); err != nil {
		t.Fatal(err)
	}

	records, err := repo.GetUnpublishedOutbox(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, rec := range records {
		if rec.EventType == "reservation.expired" && rec.AggregateID == stale.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected a reservation.expired outbox record for the lazily reclaimed hold")
	}
}

func TestRepository_SeatReset(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	ev := createEvent(t, repo, 5, time.Now().Add(time.Hour))
	if err := repo.SeedSeats(ctx, ev.ID, []string{"A1", "A2"}); err != nil {
		t.Fatal(err)
	}

	holder := uuid.New()
	if err := repo.HoldSeat(ctx, ev.ID, "A1", holder); err != nil {
		t.Fatal(err)
	}
	if err := repo.HoldSeat(ctx, ev.ID, "A1", uuid.New()); !errors.Is(err, domain.ErrSeatUnavailable) {
		t.Errorf("expected held seat to be unavailable, got %v", err)
	}

	res, err := repo.CreateReservation(ctx, ev.ID, holder, time.Now().Add(-15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ConfirmReservation(ctx, res.ID, "pay_7",
		"b4e2d3c5f6a7b8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f701"); err != nil {
		t.Fatal(err)
	}

	// Reset must refuse while confirmed bookings exist.
	if err := repo.ResetSeats(ctx, ev.ID); !errors.Is(err, domain.ErrActiveReservations) {
		t.Errorf("expected reset to be refused, got %v", err)
	}

	if _, err := repo.CancelReservation(ctx, res.ID); err != nil {
		t.Fatal(err)
	}
	if err := repo.ResetSeats(ctx, ev.ID); err != nil {
		t.Fatalf("expected reset after cancel, got %v", err)
	}

	seats, err := repo.ListSeats(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range seats {
		if s.Status != domain.SeatAvailable {
			t.Errorf("seat %s: expected AVAILABLE, got %s", s.SeatNumber, s.Status)
		}
	}
}
