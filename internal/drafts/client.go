// Package drafts is the client for the message-drafting surface. It can
// only create drafts for human review; there is deliberately no send
// operation anywhere in this package, and the engine never gets one.
package drafts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request describes one draft to create. Recipient is the role the
// message addresses; Address carries an explicit destination when the
// deployment configures one (the escalation contact), otherwise the
// drafting surface resolves the address from the account.
type Request struct {
	AccountID string  `json:"account_id"`
	Recipient string  `json:"recipient"`
	Address   string  `json:"address,omitempty"`
	Stage     int     `json:"stage"`
	Subject   string  `json:"subject"`
	Body      string  `json:"body"`
	Tone      float64 `json:"tone"`
}

// Client creates outbound drafts. Implementations are fire-and-forget
// from the engine's perspective: a failed draft is logged, never fatal.
type Client interface {
	CreateDraft(ctx context.Context, req Request) (string, error)
}

// HTTPClient talks to the hosted draft API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

// NewHTTPClient creates a draft API client.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreateDraft(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal draft request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/drafts", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build draft request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create draft: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		DraftID string `json:"draft_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode draft response: %w", err)
	}
	return out.DraftID, nil
}

// LogClient logs draft requests instead of creating them. Used in
// development when no draft API is configured.
type LogClient struct{}

func (LogClient) CreateDraft(ctx context.Context, req Request) (string, error) {
	id := uuid.NewString()
	log.Printf("draft (dry run) %s: account=%s stage=%d recipient=%s subject=%q tone=%.2f",
		id, req.AccountID, req.Stage, req.Recipient, req.Subject, req.Tone)
	return id, nil
}
