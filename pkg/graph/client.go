// Package graph provides a small Microsoft Graph client used to resolve
// the current user and directory group memberships.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/devgrove/adotools/pkg/cache"

	"github.com/codeGROOVE-dev/retry"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"

	maxRetryAttempts  = 6
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 20 * time.Second

	defaultHTTPTimeout = 30 * time.Second
)

// TokenSource supplies an AAD bearer token for Graph calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client calls the Microsoft Graph REST API.
type Client struct {
	httpClient  *http.Client
	cache       *cache.Disk
	tokenSource TokenSource
	baseURL     string
}

// Config holds settings for creating a Client.
type Config struct {
	TokenSource TokenSource
	BaseURL     string // override for tests
	CacheDir    string // empty = memory-only cache
	HTTPTimeout time.Duration
}

// New creates a Graph client.
func New(cfg Config) (*Client, error) {
	if cfg.TokenSource == nil {
		return nil, errors.New("a token source is required")
	}

	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c, err := cache.NewDisk(cache.TTLGroupMembers, cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		cache:       c,
		tokenSource: cfg.TokenSource,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}, nil
}

// get performs an authenticated GET with retry on throttling and server
// errors. Graph signals throttling with 429 and a Retry-After header; the
// backoff library's jittered delay is close enough for these tools.
func (c *Client) get(ctx context.Context, apiURL string) (*http.Response, error) {
	slog.Info("HTTP request", "component", "http", "method", "GET", "url", apiURL)

	var resp *http.Response
	err := retry.Do(
		func() error {
			token, err := c.tokenSource.Token(ctx)
			if err != nil {
				return fmt.Errorf("failed to get access token: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "application/json")

			localResp, err := c.httpClient.Do(req) //nolint:bodyclose // body is closed via drain or passed to caller
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			if localResp.StatusCode == http.StatusTooManyRequests || localResp.StatusCode >= http.StatusInternalServerError {
				status := localResp.StatusCode
				drainAndCloseBody(localResp.Body)
				slog.Warn("Graph request will retry with backoff", "url", apiURL, "status", status)
				return fmt.Errorf("http %d: retryable graph error", status)
			}

			resp = localResp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxRetryAttempts)),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", "retry", "url", apiURL, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "retryable graph error")
		}),
	)
	if err != nil {
		return nil, err
	}

	slog.Info("HTTP response", "component", "http", "url", apiURL, "status", resp.StatusCode)
	return resp, nil
}

// getJSON performs a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, apiURL string, out any) error {
	resp, err := c.get(ctx, apiURL)
	if err != nil {
		return err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph request failed (status %d)", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode graph response: %w", err)
	}
	return nil
}

func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}
