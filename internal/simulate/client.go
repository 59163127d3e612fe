package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/turforacle/internal/adapters/repository"
	"github.com/okian/turforacle/internal/domain/model"
)

// Outcome classifies an event submission.
type Outcome int

// Submission outcomes.
const (
	OutcomeFailed Outcome = iota
	OutcomeAccepted
	OutcomeDuplicate
	OutcomeRejected
	OutcomeBackpressure
)

// Client talks to the oracle HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health returns the oracle's reported statistics.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out struct {
		Status string         `json:"status"`
		Stats  map[string]any `json:"stats"`
	}
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || out.Status != "ok" {
		return nil, fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return out.Stats, nil
}

// Register stores h in the oracle's registry.
func (c *Client) Register(ctx context.Context, h repository.Horse) error { //nolint:gocritic // hugeParam
	status, err := c.do(ctx, http.MethodPost, "/v1/horses", h, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("%w: register %d returned %d", ErrUnexpected, h.TokenID, status)
	}
	return nil
}

// Submit posts e and classifies the response.
func (c *Client) Submit(ctx context.Context, e model.Event) (Outcome, error) { //nolint:gocritic // hugeParam
	status, err := c.do(ctx, http.MethodPost, "/v1/events", e, nil)
	if err != nil {
		return OutcomeFailed, err
	}
	switch status {
	case http.StatusAccepted:
		return OutcomeAccepted, nil
	case http.StatusOK:
		return OutcomeDuplicate, nil
	case http.StatusBadRequest:
		return OutcomeRejected, nil
	case http.StatusTooManyRequests:
		return OutcomeBackpressure, nil
	default:
		return OutcomeFailed, fmt.Errorf("%w: submit returned %d", ErrUnexpected, status)
	}
}

// Top fetches the n most valuable horses.
func (c *Client) Top(ctx context.Context, n int) ([]repository.Entry, error) {
	var out struct {
		Horses []repository.Entry `json:"horses"`
	}
	status, err := c.do(ctx, http.MethodGet, "/v1/horses/top?limit="+strconv.Itoa(n), nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: top returned %d", ErrUnexpected, status)
	}
	return out.Horses, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
