package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsegate/pulsegate/internal/escalation"
)

func computeHMAC(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("webhook-secret-123")
	payload := []byte(`{"type":"payment.succeeded","account_id":"acct-1"}`)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		wantErr   bool
	}{
		{"valid signature", payload, computeHMAC(payload, secret), false},
		{"wrong secret", payload, computeHMAC(payload, []byte("wrong")), true},
		{"tampered payload", []byte(`{"type":"invoice.paid"}`), computeHMAC(payload, secret), true},
		{"missing prefix", payload, "not-a-valid-sig", true},
		{"invalid hex", payload, "sha256=zzzz", true},
		{"empty signature", payload, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifySignature(tc.payload, tc.signature, secret)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type fakeResolver struct {
	resolved []string
}

func (f *fakeResolver) Resolve(ctx context.Context, now time.Time, accountID string) (escalation.State, error) {
	f.resolved = append(f.resolved, accountID)
	return escalation.State{AccountID: accountID}, nil
}

func TestHandlerResolvesOnPaymentSucceeded(t *testing.T) {
	secret := []byte("s3cret")
	resolver := &fakeResolver{}
	h := NewHandler(secret, resolver)

	payload := []byte(`{"type":"payment.succeeded","account_id":"acct-1","amount":1200.50}`)
	req := httptest.NewRequest("POST", "/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("X-Signature-256", computeHMAC(payload, secret))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 202 {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(resolver.resolved) != 1 || resolver.resolved[0] != "acct-1" {
		t.Errorf("resolved = %v, want [acct-1]", resolver.resolved)
	}
}

func TestHandlerIgnoresNonResolutionEvents(t *testing.T) {
	secret := []byte("s3cret")
	resolver := &fakeResolver{}
	h := NewHandler(secret, resolver)

	payload := []byte(`{"type":"payment.failed","account_id":"acct-1"}`)
	req := httptest.NewRequest("POST", "/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("X-Signature-256", computeHMAC(payload, secret))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 202 {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(resolver.resolved) != 0 {
		t.Errorf("resolved = %v, want none for payment.failed", resolver.resolved)
	}
}

func TestHandlerRejectsBadSignature(t *testing.T) {
	resolver := &fakeResolver{}
	h := NewHandler([]byte("s3cret"), resolver)

	payload := []byte(`{"type":"payment.succeeded","account_id":"acct-1"}`)
	req := httptest.NewRequest("POST", "/v1/webhooks/payments", bytes.NewReader(payload))
	req.Header.Set("X-Signature-256", computeHMAC(payload, []byte("other")))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(resolver.resolved) != 0 {
		t.Error("resolved an account despite a bad signature")
	}
}
