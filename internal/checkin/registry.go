// Package checkin mints and redeems single-use check-in tokens.
package checkin

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/cockroachdb/errors"

	"eventbooking/internal/domain"
	"eventbooking/internal/observability"
)

// Store is the slice of the storage layer the registry needs. RedeemToken
// must flip CONFIRMED to CHECKED_IN atomically per token.
type Store interface {
	RedeemToken(ctx context.Context, token string) (*domain.Reservation, error)
}

type Registry struct {
	store  Store
	logger observability.Logger
}

func NewRegistry(store Store, logger observability.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// NewToken returns a 64-char hex token from 32 random bytes. Collision
// probability is negligible; the storage layer still carries a unique index
// as a backstop.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Redeem flips the redemption state exactly once. A second presentation of
// the same token gets ErrAlreadyCheckedIn, an unknown token ErrInvalidToken.
func (r *Registry) Redeem(ctx context.Context, token string) (*domain.Reservation, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	res, err := r.store.RedeemToken(ctx, token)
	switch {
	case err == nil:
		observability.RedemptionsTotal.WithLabelValues("checked_in").Inc()
		r.logger.WithField("reservation_id", res.ID).Info("check-in redeemed")
	case isConflict(err):
		observability.RedemptionsTotal.WithLabelValues("rejected").Inc()
	default:
		observability.RedemptionsTotal.WithLabelValues("error").Inc()
	}
	return res, err
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrAlreadyCheckedIn) ||
		errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrInvalidState)
}
