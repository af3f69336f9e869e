package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"

	"eventbooking/internal/adapters/crdb"
	redisadapter "eventbooking/internal/adapters/redis"
	"eventbooking/internal/booking"
	"eventbooking/internal/checkin"
	"eventbooking/internal/config"
	httphandler "eventbooking/internal/http"
	"eventbooking/internal/idempotency"
	"eventbooking/internal/observability"
	"eventbooking/internal/payment"
	"eventbooking/internal/rateLimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	cache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, cfg.IdempotencyTTL)
	rl := rateLimit.NewRateLimiter(cache)

	verifier := payment.NewVerifier(cfg.GatewaySecret)
	gateway := payment.NewGatewayClient(cfg.GatewayURL, cfg.GatewayKey, cfg.GatewaySecret)
	manager := booking.NewManager(repo, verifier, logger, cfg.PendingTTL)
	registry := checkin.NewRegistry(repo, logger)

	handlers := httphandler.NewHandlers(cfg, manager, registry, repo, gateway, cache, idemp, logger)
	r := httphandler.SetupRouter(handlers, logger, rl, idemp, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
