package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://huggingface.co/api/models"
	DefaultUserAgent = "hubsync/1.0"

	maxErrorBody = 512
)

// RequestError is returned for any failed listing call. StatusCode is zero
// when no HTTP response was received.
type RequestError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		if e.StatusCode != 0 {
			return fmt.Sprintf("hub request: HTTP %d: %v", e.StatusCode, e.Err)
		}
		return fmt.Sprintf("hub request: %v", e.Err)
	}
	return fmt.Sprintf("hub request: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
	// Timeout of zero leaves the request bounded only by ctx.
	Timeout time.Duration
	// RPS of zero disables client-side rate limiting.
	RPS float64
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// FetchModels issues a single GET for up to limit models and returns the
// elements of the JSON array body undecoded. There are no retries.
func (c *Client) FetchModels(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		return nil, &RequestError{Err: fmt.Errorf("limit must be positive, got %d", limit)}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("parse base url: %w", err)}
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RequestError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: snippet}
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: errors.New("decode body: expected a JSON array, got null")}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return items, nil
}
