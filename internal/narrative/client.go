// Package narrative enriches score results with a free-text explanation
// from an LLM gateway. Enrichment never alters the computed number: a
// failed or slow narrative call leaves the ScoreResult untouched.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pulsegate/pulsegate/pkg/scoring"
)

// Client produces a narrative explanation for a score result.
type Client interface {
	Explain(ctx context.Context, result *scoring.ScoreResult) (string, error)
}

// HTTPClient calls the narrative gateway.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient creates a narrative gateway client.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Explain(ctx context.Context, result *scoring.ScoreResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal score result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/narratives", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build narrative request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative request: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Narrative string `json:"narrative"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode narrative response: %w", err)
	}
	return out.Narrative, nil
}
