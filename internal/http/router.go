package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventbooking/internal/idempotency"
	"eventbooking/internal/observability"
	"eventbooking/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/v1/events", h.ListEvents)
	r.Get("/v1/events/{id}", h.GetEvent)
	r.Get("/v1/events/{id}/seats", h.ListSeats)

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(JWTMiddleware(jwtSecret))
		r.Use(RateLimitMiddleware(rl, h.cfg.RateLimitUser, h.cfg.RateLimitIP))
		r.Use(IdempotencyMiddleware(idemp))

		r.Post("/v1/reservations", h.CreateReservation)
		r.Post("/v1/reservations/{id}/confirm", h.ConfirmReservation)
		r.Delete("/v1/reservations/{id}", h.CancelReservation)
		r.Get("/v1/reservations", h.ListReservations)
		r.Post("/v1/payments/order", h.CreatePaymentOrder)
		r.Post("/v1/events/{id}/seats/hold", h.HoldSeat)
		r.Post("/v1/events/{id}/seats/confirm", h.ConfirmSeat)
		r.Post("/v1/events/{id}/seats/release", h.ReleaseSeat)

		// Privileged surface.
		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/v1/events", h.CreateEvent)
			r.Put("/v1/events/{id}", h.UpdateEvent)
			r.Delete("/v1/events/{id}", h.DeleteEvent)
			r.Get("/v1/admin/reservations", h.ListAllReservations)
			r.Post("/v1/check-in", h.CheckIn)
			r.Post("/v1/events/{id}/seats", h.SeedSeats)
			r.Post("/v1/events/{id}/seats/reset", h.ResetSeats)
		})
	})

	return r
}
