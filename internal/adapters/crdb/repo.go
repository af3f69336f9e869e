package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventbooking/internal/domain"
	"eventbooking/internal/observability"
)

const (
	serializationFailureCode = "40001"
	uniqueViolationCode      = "23505"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a SERIALIZABLE transaction. Serialization failures
// and unique violations surface as domain.ErrSerializationFailure and
// domain.ErrDuplicateBooking so callers can retry or reject.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}
	return nil
}
