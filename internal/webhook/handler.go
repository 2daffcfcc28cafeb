package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/pulsegate/pulsegate/internal/escalation"
)

// Resolver applies the payment-received reset for one account.
type Resolver interface {
	Resolve(ctx context.Context, now time.Time, accountID string) (escalation.State, error)
}

// Handler processes incoming payment webhook requests.
type Handler struct {
	secret   []byte
	resolver Resolver
	now      func() time.Time
}

// NewHandler creates a webhook Handler.
func NewHandler(secret []byte, resolver Resolver) *Handler {
	return &Handler{secret: secret, resolver: resolver, now: time.Now}
}

// ServeHTTP handles one webhook delivery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MB limit
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Signature-256")
	if err := VerifySignature(body, signature, h.secret); err != nil {
		log.Printf("webhook signature verification failed: %v", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := ParseEvent(body)
	if err != nil {
		log.Printf("webhook parse error: %v", err)
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	if !event.IsResolution() {
		// Acknowledge and ignore anything that does not clear the ladder.
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ignored"})
		return
	}

	if _, err := h.resolver.Resolve(r.Context(), h.now(), event.AccountID); err != nil {
		log.Printf("webhook resolve %s: %v", event.AccountID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	log.Printf("webhook: %s resolved account %s", event.Type, event.AccountID)
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "resolved"})
}
