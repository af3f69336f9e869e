package domain

// PaymentClaim is the caller's assertion that a payment succeeded.
// It lives only long enough to authorize one reservation transition.
type PaymentClaim struct {
	OrderID   string
	PaymentID string
	Signature string
}

// OrderDescriptor is the opaque result of creating a payment challenge at
// the external gateway. Its wire format belongs to the gateway.
type OrderDescriptor struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Receipt     string
}
