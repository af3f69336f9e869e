package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"eventbooking/internal/domain"
	"eventbooking/internal/idempotency"
	"eventbooking/internal/observability"
	"eventbooking/internal/rateLimit"
)

type contextKey string

const principalKey contextKey = "principal"

func RequestIDMiddleware(next http.Handler) http.Handler {
	return middleware.RequestID(next)
}

func LoggerMiddleware(logger observability.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			entry := logger.WithField("request_id", reqID)
			ctx := context.WithValue(r.Context(), contextKey("logger"), entry)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observability.RequestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status()), r.Method).Inc()
	})
}

// JWTMiddleware validates the bearer token and injects the caller principal.
// Token issuance lives elsewhere; this side only verifies HS256 and trusts
// the sub/role claims.
func JWTMiddleware(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid claims", http.StatusUnauthorized)
				return
			}
			sub, _ := claims["sub"].(string)
			userID, err := uuid.Parse(sub)
			if err != nil {
				http.Error(w, "invalid subject", http.StatusUnauthorized)
				return
			}
			role, _ := claims["role"].(string)
			if role == "" {
				role = domain.RoleAttendee
			}

			principal := domain.Principal{UserID: userID, Role: role}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFrom(r *http.Request) (domain.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(domain.Principal)
	return p, ok
}

// RequireAdmin guards privileged routes (check-in, seat reset, event CRUD,
// list-all).
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r)
		if !ok || !p.IsAdmin() {
			http.Error(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IdempotencyMiddleware(idemp *idempotency.Idempotency) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				http.Error(w, "missing Idempotency-Key", http.StatusBadRequest)
				return
			}
			if len(key) < 16 {
				http.Error(w, "invalid Idempotency-Key", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RateLimitMiddleware(rl *rateLimit.RateLimiter, userPerMin, ipPerMin int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userKey := ""
			if p, ok := principalFrom(r); ok {
				userKey = p.UserID.String()
			}
			ip := r.RemoteAddr
			if !rl.Allow(r.Context(), "user:"+userKey, userPerMin, time.Minute) || !rl.Allow(r.Context(), "ip:"+ip, ipPerMin, time.Minute) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		tracer := otel.Tracer("http")
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.url", r.URL.String()),
		)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
