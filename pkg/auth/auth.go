// Package auth acquires AAD access tokens for the adotools suite using the
// OAuth2 device-code flow, with an on-disk token cache so users sign in at
// most once per refresh-token lifetime.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultAuthority = "https://login.microsoftonline.com"

	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

	// expirySlack refreshes tokens slightly before they actually expire.
	expirySlack = 2 * time.Minute

	filePermOwnerRW = 0o600
	dirPermOwner    = 0o700

	defaultHTTPTimeout = 30 * time.Second
)

// errAuthorizationPending is returned by the token endpoint while the user
// has not finished the device-code sign-in yet.
var errAuthorizationPending = errors.New("authorization pending")

// Config holds the AAD application settings for token acquisition.
type Config struct {
	TenantID  string
	ClientID  string
	Scopes   []string
	CacheDir string // where the token cache file lives; empty disables caching
	// CacheName is the cache file name, defaulting to "token.json". AAD
	// tokens are per-resource, so the Azure DevOps and Graph sources each
	// need their own file.
	CacheName string
	Authority string // override for tests
	// Prompt receives the user-facing device-code instructions. Defaults
	// to printing on stderr.
	Prompt func(verificationURL, userCode string)

	HTTPTimeout time.Duration
}

// DeviceCodeSource implements the TokenSource interfaces of pkg/azdo and
// pkg/graph via the device-code flow.
type DeviceCodeSource struct {
	httpClient *http.Client
	prompt     func(verificationURL, userCode string)
	authority  string
	tenantID   string
	clientID   string
	scope      string
	cachePath  string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// cachedToken is the on-disk shape of the token cache.
type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewDeviceCodeSource creates a token source for the given app registration.
func NewDeviceCodeSource(cfg Config) (*DeviceCodeSource, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" {
		return nil, errors.New("tenant id and client id are required")
	}
	if len(cfg.Scopes) == 0 {
		return nil, errors.New("at least one scope is required")
	}

	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	authority := cfg.Authority
	if authority == "" {
		authority = defaultAuthority
	}
	prompt := cfg.Prompt
	if prompt == nil {
		prompt = func(verificationURL, userCode string) {
			fmt.Fprintf(os.Stderr, "To sign in, open %s and enter the code %s\n", verificationURL, userCode)
		}
	}

	s := &DeviceCodeSource{
		httpClient: &http.Client{Timeout: timeout},
		prompt:     prompt,
		authority:  strings.TrimRight(authority, "/"),
		tenantID:   cfg.TenantID,
		clientID:   cfg.ClientID,
		scope:      strings.Join(cfg.Scopes, " "),
	}
	if cfg.CacheDir != "" {
		name := cfg.CacheName
		if name == "" {
			name = "token.json"
		}
		s.cachePath = filepath.Join(cfg.CacheDir, name)
		s.loadCache()
	}
	return s, nil
}

// Token returns a valid access token, refreshing or running the
// device-code flow as needed. Safe for concurrent use.
func (s *DeviceCodeSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.expiresAt.Add(-expirySlack)) {
		return s.accessToken, nil
	}

	if s.refreshToken != "" {
		err := s.redeemRefreshToken(ctx)
		if err == nil {
			return s.accessToken, nil
		}
		slog.Warn("Refresh token redemption failed, falling back to device code", "error", err)
	}

	if err := s.runDeviceCodeFlow(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *DeviceCodeSource) tokenEndpoint() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", s.authority, s.tenantID)
}

func (s *DeviceCodeSource) deviceCodeEndpoint() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/devicecode", s.authority, s.tenantID)
}

// runDeviceCodeFlow requests a device code, shows the sign-in instructions,
// and polls the token endpoint until the user completes sign-in.
func (s *DeviceCodeSource) runDeviceCodeFlow(ctx context.Context) error {
	form := url.Values{}
	form.Set("client_id", s.clientID)
	form.Set("scope", s.scope)

	var dc struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		ExpiresIn       int    `json:"expires_in"`
		Interval        int    `json:"interval"`
	}
	if err := s.postForm(ctx, s.deviceCodeEndpoint(), form, &dc); err != nil {
		return fmt.Errorf("device code request failed: %w", err)
	}

	s.prompt(dc.VerificationURI, dc.UserCode)
	slog.Info("[AUTH] Waiting for device-code sign-in", "expires_in_s", dc.ExpiresIn)

	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		if time.Now().After(deadline) {
			return errors.New("device code expired before sign-in completed")
		}

		form := url.Values{}
		form.Set("grant_type", deviceCodeGrant)
		form.Set("client_id", s.clientID)
		form.Set("device_code", dc.DeviceCode)

		err := s.redeemTokenForm(ctx, form)
		if errors.Is(err, errAuthorizationPending) {
			continue
		}
		if err != nil {
			return err
		}
		slog.Info("[AUTH] Device-code sign-in completed")
		return nil
	}
}

// redeemRefreshToken exchanges the cached refresh token for a new access token.
func (s *DeviceCodeSource) redeemRefreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", s.clientID)
	form.Set("scope", s.scope)
	form.Set("refresh_token", s.refreshToken)
	return s.redeemTokenForm(ctx, form)
}

// redeemTokenForm posts a token-grant form and stores the returned tokens.
func (s *DeviceCodeSource) redeemTokenForm(ctx context.Context, form url.Values) error {
	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Error        string `json:"error"`
		Description  string `json:"error_description"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := s.postForm(ctx, s.tokenEndpoint(), form, &payload); err != nil {
		return err
	}

	switch payload.Error {
	case "":
	case "authorization_pending", "slow_down":
		return errAuthorizationPending
	default:
		return fmt.Errorf("token request failed: %s: %s", payload.Error, payload.Description)
	}

	s.accessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		s.refreshToken = payload.RefreshToken
	}
	s.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	s.saveCache()
	return nil
}

// postForm posts x-www-form-urlencoded data and decodes the JSON response.
// AAD returns OAuth errors with non-200 statuses and a JSON body, so the
// body is decoded regardless of status.
func (s *DeviceCodeSource) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close response body", "error", err)
		}
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// loadCache reads cached tokens from disk; a missing or unreadable cache is
// not an error, sign-in just starts fresh.
func (s *DeviceCodeSource) loadCache() {
	data, err := os.ReadFile(s.cachePath)
	if err != nil {
		return
	}
	var c cachedToken
	if err := json.Unmarshal(data, &c); err != nil {
		slog.Warn("Corrupt token cache, ignoring", "path", s.cachePath, "error", err)
		return
	}
	s.accessToken = c.AccessToken
	s.refreshToken = c.RefreshToken
	s.expiresAt = c.ExpiresAt
}

// saveCache persists tokens with owner-only permissions.
func (s *DeviceCodeSource) saveCache() {
	if s.cachePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.cachePath), dirPermOwner); err != nil {
		slog.Warn("Failed to create token cache directory", "error", err)
		return
	}
	data, err := json.Marshal(cachedToken{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		ExpiresAt:    s.expiresAt,
	})
	if err != nil {
		return
	}
	if err := os.WriteFile(s.cachePath, data, filePermOwnerRW); err != nil {
		slog.Warn("Failed to write token cache", "path", s.cachePath, "error", err)
	}
}
