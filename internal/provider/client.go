// Package provider wraps the external result provider: one HTTP call per
// race that fetches and persists the race's result and runner rows on the
// provider side, answering with a JSON envelope.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Outcome classifies a single fetch attempt. Every attempt lands in exactly
// one bucket; NotReady is expected and frequent, not an error.
type Outcome string

const (
	OutcomeSaved    Outcome = "saved"
	OutcomeNotReady Outcome = "not_ready"
	OutcomeFailed   Outcome = "failed"
)

// CodeNotAvailable is the envelope code the provider uses for results that
// are not published yet. Classification keys on this code (or its message
// wording), never on the HTTP status alone.
const CodeNotAvailable = "RESULT_NOT_AVAILABLE"

// Envelope is the provider's response contract.
type Envelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Config holds the provider endpoint settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client invokes the result provider for one race at a time. Throttling is
// the caller's job; the client only enforces the per-call timeout.
type Client struct {
	http    *http.Client
	url     string
	apiKey  string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewClient creates a result provider client. The API key is required.
func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("provider: endpoint URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider: API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		timeout: timeout,
		logger:  logger,
	}, nil
}

type fetchRequest struct {
	RaceID uuid.UUID `json:"race_id"`
}

// FetchResult asks the provider to fetch and persist the result for one race
// and classifies the response. The returned error is non-nil only for the
// Failed outcome and carries the underlying cause for logging.
func (c *Client) FetchResult(ctx context.Context, raceID uuid.UUID) (Outcome, Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(fetchRequest{RaceID: raceID})
	if err != nil {
		return OutcomeFailed, Envelope{}, fmt.Errorf("provider: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return OutcomeFailed, Envelope{}, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return OutcomeFailed, Envelope{}, fmt.Errorf("provider: call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return OutcomeFailed, Envelope{}, fmt.Errorf("provider: read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return OutcomeFailed, Envelope{}, fmt.Errorf("provider: malformed envelope (status %d): %w", resp.StatusCode, err)
	}

	return classify(resp.StatusCode, env)
}

func classify(status int, env Envelope) (Outcome, Envelope, error) {
	if env.Success {
		return OutcomeSaved, env, nil
	}
	if env.Code == CodeNotAvailable || strings.Contains(strings.ToLower(env.Message), "not available") {
		return OutcomeNotReady, env, nil
	}
	return OutcomeFailed, env, fmt.Errorf("provider: status %d, code %q: %s", status, env.Code, env.Message)
}
