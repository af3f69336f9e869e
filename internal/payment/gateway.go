package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/go-resty/resty/v2"

	"eventbooking/internal/domain"
)

// GatewayClient creates payment challenges at the external gateway. Pure
// pass-through: the gateway owns the wire format, we keep only the opaque
// order id.
type GatewayClient struct {
	http *resty.Client
	key  string
}

func NewGatewayClient(baseURL, key, secret string) *GatewayClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(key, secret)
	return &GatewayClient{http: client, key: key}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder asks the gateway for a new order over the given amount in
// minor units.
func (c *GatewayClient) CreateOrder(ctx context.Context, amountMinor int64, currency string) (*domain.OrderDescriptor, error) {
	if amountMinor < 0 || currency == "" {
		return nil, domain.ErrInvalidInput
	}

	receipt, err := newReceipt()
	if err != nil {
		return nil, err
	}

	var out orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(orderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt}).
		SetResult(&out).
		Post("/v1/orders")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway order creation: %s", resp.Status())
	}

	return &domain.OrderDescriptor{
		OrderID:     out.ID,
		AmountMinor: out.Amount,
		Currency:    out.Currency,
		Receipt:     out.Receipt,
	}, nil
}

func newReceipt() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
