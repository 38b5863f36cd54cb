// Package store provides a client for the row-oriented HTTP data API that
// fronts the relational store. Reads are filtered SELECTs, writes are INSERT,
// PATCH and upsert with merge-duplicates conflict resolution; the store's
// conflict keys, not locks, are the pipeline's concurrency control.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// Config holds connection settings for the data API.
type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the data API. All write verbs are idempotent by
// construction (PATCH by filter, upsert by conflict key), so transport-level
// retries are safe.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	key     string
	logger  *logrus.Logger
}

// NewClient creates a data API client. Both the base URL and the service key
// are required; a missing credential is a configuration error, not something
// to discover at first request.
func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("store: base URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("store: service key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = retries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.CheckRetry = retryPolicy()
	rc.Logger = nil

	return &Client{
		http:    rc,
		baseURL: cfg.BaseURL,
		key:     cfg.ServiceKey,
		logger:  logger,
	}, nil
}

// Select fetches rows from a table or view into dest, which must be a pointer
// to a slice of row structs.
func (c *Client) Select(ctx context.Context, table string, q *Query, dest interface{}) error {
	body, err := c.do(ctx, http.MethodGet, table, q, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("store: decode %s rows: %w", table, err)
	}
	return nil
}

// Insert appends rows to a table. rows may be a single struct or a slice.
func (c *Client) Insert(ctx context.Context, table string, rows interface{}) error {
	_, err := c.do(ctx, http.MethodPost, table, nil, rows, map[string]string{
		"Prefer": "return=minimal",
	})
	return err
}

// Patch applies a partial update to every row matched by the query filters.
func (c *Client) Patch(ctx context.Context, table string, q *Query, patch interface{}) error {
	_, err := c.do(ctx, http.MethodPatch, table, q, patch, map[string]string{
		"Prefer": "return=minimal",
	})
	return err
}

// Upsert inserts rows, merging into existing rows that collide on the
// conflict key columns (comma separated). Repeating the call converges to
// the same state as performing it once.
func (c *Client) Upsert(ctx context.Context, table, conflictKey string, rows interface{}) error {
	q := NewQuery().param("on_conflict", conflictKey)
	_, err := c.do(ctx, http.MethodPost, table, q, rows, map[string]string{
		"Prefer": "resolution=merge-duplicates,return=minimal",
	})
	return err
}

// Ping checks connectivity for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("store: ping: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, q *Query, payload interface{}, headers map[string]string) ([]byte, error) {
	url := c.baseURL + "/" + table
	if q != nil {
		if enc := q.Encode(); enc != "" {
			url += "?" + enc
		}
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("store: encode %s payload: %w", table, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("store: build request: %w", err)
	}
	c.authorize(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: %s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read %s response: %w", table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("store: %s %s: status %d: %s", method, table, resp.StatusCode, snippet)
	}

	return body, nil
}

func (c *Client) authorize(req *retryablehttp.Request) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
}

// retryPolicy retries transient failures only: network errors, 429 and 5xx.
// Other 4xx responses are caller bugs and must surface immediately.
func retryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
}
