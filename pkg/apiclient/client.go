package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config tunes outbound throttling and retry behaviour.
type Config struct {
	BaseURL string
	Token   string
	// RequestsPerSecond caps the sustained call rate; Burst allows short spikes.
	RequestsPerSecond float64
	Burst             int
	// MaxRetries bounds retries after a 429 response; RetryDelay is the fixed
	// wait between attempts.
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Client is a rate-limited HTTP client for bulk operations against the API.
// Calls block on a token bucket and retry with a fixed delay when the server
// answers 429.
type Client struct {
	baseURL    string
	token      string
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	http       *http.Client
}

// New constructs a Client applying defaults for unset fields.
func New(cfg Config) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		http:       &http.Client{Timeout: cfg.Timeout},
	}
}

// Result carries the response of a single call.
type Result struct {
	Status int
	Body   []byte
}

// Do performs one rate-limited request. A JSON-encodable payload may be nil.
func (c *Client) Do(ctx context.Context, method, path string, payload interface{}) (*Result, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = encoded
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		res, err := c.request(ctx, method, path, body)
		if err != nil {
			return nil, err
		}
		if res.Status != http.StatusTooManyRequests {
			return res, nil
		}
		if attempt >= c.maxRetries {
			return res, fmt.Errorf("%s %s: rate limited after %d attempts", method, path, attempt+1)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

// Get issues a GET and decodes the JSON response into dest when non-nil.
func (c *Client) Get(ctx context.Context, path string, dest interface{}) (*Result, error) {
	res, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return res, err
	}
	if dest != nil && len(res.Body) > 0 {
		if err := json.Unmarshal(res.Body, dest); err != nil {
			return res, fmt.Errorf("decode response: %w", err)
		}
	}
	return res, nil
}

// Post issues a POST with the given JSON payload.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (*Result, error) {
	return c.Do(ctx, http.MethodPost, path, payload)
}

func (c *Client) request(ctx context.Context, method, path string, body []byte) (*Result, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Result{Status: resp.StatusCode, Body: data}, nil
}
