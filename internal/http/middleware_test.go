package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventbooking/internal/domain"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTMiddleware(t *testing.T) {
	userID := uuid.New()

	var got domain.Principal
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = principalFrom(r)
		called = true
	})
	handler := JWTMiddleware(testSecret)(next)

	t.Run("valid token", func(t *testing.T) {
		called = false
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"role": domain.RoleAdmin,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.True(t, called)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, domain.RoleAdmin, got.Role)
	})

	t.Run("role defaults to attendee", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"sub": userID.String()})
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, domain.RoleAttendee, got.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("wrong secret", func(t *testing.T) {
		called = false
		token := signToken(t, "other-secret", jwt.MapClaims{"sub": userID.String()})
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("expired token", func(t *testing.T) {
		called = false
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("non-uuid subject", func(t *testing.T) {
		called = false
		token := signToken(t, testSecret, jwt.MapClaims{"sub": "alice"})
		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})
}

func withPrincipal(req *http.Request, p domain.Principal) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), principalKey, p))
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(next)

	t.Run("no principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/events", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("attendee", func(t *testing.T) {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/admin/events", nil),
			domain.Principal{UserID: uuid.New(), Role: domain.RoleAttendee})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		req := withPrincipal(httptest.NewRequest(http.MethodPost, "/admin/events", nil),
			domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestIdempotencyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := IdempotencyMiddleware(nil)(next)

	t.Run("non-POST passes without key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reservations", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("POST requires key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reservations", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short key rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
		req.Header.Set("Idempotency-Key", "short")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid key passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
		req.Header.Set("Idempotency-Key", uuid.NewString())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
