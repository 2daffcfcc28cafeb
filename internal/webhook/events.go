// Package webhook handles incoming payment-processor webhook events.
// A successful payment is the explicit reset event for the escalation
// ladder, including terminal accounts.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// VerifySignature validates the X-Signature-256 header against the payload.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	if !strings.HasPrefix(signature, "sha256=") {
		return fmt.Errorf("invalid signature format")
	}
	sig, err := hex.DecodeString(signature[7:])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	if !hmac.Equal(sig, expected) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// PaymentEvent is the processor's notification envelope.
type PaymentEvent struct {
	Type      string  `json:"type"`
	AccountID string  `json:"account_id"`
	InvoiceID string  `json:"invoice_id,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Currency  string  `json:"currency,omitempty"`
}

// Event types that clear the ladder.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventInvoicePaid      = "invoice.paid"
	EventDisputeResolved  = "dispute.resolved"
)

// IsResolution reports whether the event clears the account's delinquency.
func (e *PaymentEvent) IsResolution() bool {
	switch e.Type {
	case EventPaymentSucceeded, EventInvoicePaid, EventDisputeResolved:
		return true
	}
	return false
}

// ParseEvent parses a payment webhook payload.
func ParseEvent(payload []byte) (*PaymentEvent, error) {
	var e PaymentEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("parse payment event: %w", err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("payment event missing type")
	}
	if e.AccountID == "" {
		return nil, fmt.Errorf("payment event missing account_id")
	}
	return &e, nil
}
