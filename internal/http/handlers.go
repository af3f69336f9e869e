package http

import (
	"net/http"

	"eventbooking/internal/adapters/crdb"
	redisadapter "eventbooking/internal/adapters/redis"
	"eventbooking/internal/booking"
	"eventbooking/internal/checkin"
	"eventbooking/internal/config"
	"eventbooking/internal/idempotency"
	"eventbooking/internal/observability"
	"eventbooking/internal/payment"
)

type Handlers struct {
	cfg      *config.Config
	manager  *booking.Manager
	registry *checkin.Registry
	repo     *crdb.Repository
	gateway  *payment.GatewayClient
	cache    *redisadapter.Cache
	idemp    *idempotency.Idempotency
	logger   observability.Logger
}

func NewHandlers(cfg *config.Config, manager *booking.Manager, registry *checkin.Registry, repo *crdb.Repository, gateway *payment.GatewayClient, cache *redisadapter.Cache, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		manager:  manager,
		registry: registry,
		repo:     repo,
		gateway:  gateway,
		cache:    cache,
		idemp:    idemp,
		logger:   logger,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
