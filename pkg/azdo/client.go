// Package azdo provides a minimal Azure DevOps REST API client for the
// adotools suite: pull requests with reviewer votes, and WIQL work-item
// queries.
package azdo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devgrove/adotools/pkg/cache"

	"github.com/codeGROOVE-dev/retry"
)

const (
	apiVersion = "7.1"

	defaultBaseURL = "https://dev.azure.com"

	maxRetryAttempts  = 8
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second

	defaultHTTPTimeout = 30 * time.Second
)

// TokenSource supplies an AAD bearer token. pkg/auth implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the Azure DevOps REST API for one organization/project.
type Client struct {
	httpClient  *http.Client
	cache       *cache.Disk
	tokenSource TokenSource
	baseURL     string
	org         string
	project     string
	pat         string
}

// Config holds settings for creating a Client.
type Config struct {
	TokenSource TokenSource // AAD bearer auth; ignored when PAT is set
	BaseURL     string      // override for tests; defaults to https://dev.azure.com
	Org         string
	Project     string
	PAT         string // personal access token (Basic auth)
	CacheDir    string // empty = memory-only cache
	HTTPTimeout time.Duration
}

// New creates an Azure DevOps client. Either PAT or TokenSource must be set.
func New(cfg Config) (*Client, error) {
	if cfg.Org == "" || cfg.Project == "" {
		return nil, errors.New("organization and project are required")
	}
	if cfg.PAT == "" && cfg.TokenSource == nil {
		return nil, errors.New("either a PAT or a token source is required")
	}

	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c, err := cache.NewDisk(cache.TTLPullRequests, cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		cache:       c,
		tokenSource: cfg.TokenSource,
		baseURL:     strings.TrimRight(baseURL, "/"),
		org:         cfg.Org,
		project:     cfg.Project,
		pat:         cfg.PAT,
	}, nil
}

// apiURL builds an _apis URL inside the configured org and project.
func (c *Client) apiURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	return fmt.Sprintf("%s/%s/%s/_apis/%s?%s",
		c.baseURL, url.PathEscape(c.org), url.PathEscape(c.project), path, query.Encode())
}

// drainAndCloseBody drains and closes an HTTP response body to prevent resource leaks.
func drainAndCloseBody(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		slog.Warn("Failed to drain response body", "error", err)
	}
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}

// doRequest makes an HTTP request to the Azure DevOps API with retry logic.
// Rate limits and server errors retry with backoff; everything else is
// returned to the caller for status handling.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body any) (*http.Response, error) {
	slog.Info("HTTP request", "component", "http", "method", method, "url", apiURL)

	var resp *http.Response
	err := retryWithBackoff(ctx, fmt.Sprintf("%s %s", method, apiURL), func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyBytes, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		if c.pat != "" {
			// Azure DevOps PATs go in as Basic auth with an empty username.
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(":"+c.pat)))
		} else {
			token, err := c.tokenSource.Token(ctx)
			if err != nil {
				return fmt.Errorf("failed to get access token: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")
		if method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut {
			req.Header.Set("Content-Type", "application/json")
		}

		localResp, err := c.httpClient.Do(req) //nolint:bodyclose // body is closed via drain or passed to caller
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if localResp.StatusCode == http.StatusTooManyRequests {
			drainAndCloseBody(localResp.Body)
			slog.Warn("Rate limited - will retry with backoff", "method", method, "url", apiURL, "status", 429)
			return fmt.Errorf("http %d: rate limited", localResp.StatusCode)
		}
		if localResp.StatusCode >= http.StatusInternalServerError && localResp.StatusCode < 600 {
			drainAndCloseBody(localResp.Body)
			slog.Warn("Server error - will retry with backoff", "method", method, "url", apiURL, "status", localResp.StatusCode)
			return fmt.Errorf("http %d: server error", localResp.StatusCode)
		}

		resp = localResp
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("HTTP response", "component", "http", "method", method, "url", apiURL, "status", resp.StatusCode)
	return resp, nil
}

// retryWithBackoff executes a function with exponential backoff using the codeGROOVE retry library.
func retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(uint(maxRetryAttempts)),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(initialRetryDelay/4),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retry attempt", "component", "retry", "operation", operation, "attempt", n+1, "max_attempts", maxRetryAttempts, "error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if err == nil {
				return false
			}
			errStr := err.Error()
			return strings.Contains(errStr, "rate limited") ||
				strings.Contains(errStr, "server error") ||
				strings.Contains(errStr, "connection refused") ||
				strings.Contains(errStr, "timeout") ||
				strings.Contains(errStr, "EOF")
		}),
	)
}
