// The expiry worker reclaims capacity from pending reservations whose
// payment never arrived. Without it, abandoned checkouts leak slots.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"eventbooking/internal/adapters/crdb"
	"eventbooking/internal/config"
	"eventbooking/internal/domain"
	"eventbooking/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	worker := NewExpiryWorker(repo, logger, cfg.PendingTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, cfg.SweepInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown expiry worker")
}

type ExpiryWorker struct {
	repo       *crdb.Repository
	logger     observability.Logger
	pendingTTL time.Duration
}

func NewExpiryWorker(repo *crdb.Repository, logger observability.Logger, pendingTTL time.Duration) *ExpiryWorker {
	return &ExpiryWorker{repo: repo, logger: logger, pendingTTL: pendingTTL}
}

func (w *ExpiryWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := w.sweepWithRetry(ctx, now.UTC().Add(-w.pendingTTL)); err != nil {
				w.logger.Error("sweep failed after retries", err)
			}
		}
	}
}

func (w *ExpiryWorker) sweepWithRetry(ctx context.Context, staleBefore time.Time) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		expired, err := w.repo.ExpirePending(ctx, staleBefore)
		if err == nil {
			if len(expired) > 0 {
				w.log(ctx, expired)
			}
			return nil
		}
		lastErr = err

		backoff := time.Duration(1<<i) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func (w *ExpiryWorker) log(_ context.Context, expired []domain.Reservation) {
	for _, res := range expired {
		observability.ExpiredPendingReleased.Inc()
		w.logger.WithField("reservation_id", res.ID).
			WithField("event_id", res.EventID).
			Info("stale pending reservation reclaimed")
	}
}
