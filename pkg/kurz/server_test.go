package kurz

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *Store) {
	t.Helper()
	store := NewStore()
	return NewServer(store, NewMetrics(), "http://kurz.test"), store
}

func TestStore_AddResolve(t *testing.T) {
	store := NewStore()

	link, err := store.Add("https://dev.azure.com/contoso/platform/_git/gateway/pullrequest/421")
	require.NoError(t, err)
	assert.Equal(t, "1", link.Key)

	target, err := store.Resolve("1")
	require.NoError(t, err)
	assert.Equal(t, link.Target, target)

	stored, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.Hits)
}

func TestStore_AddRejectsBadURLs(t *testing.T) {
	store := NewStore()
	for _, target := range []string{"", "not-a-url", "ftp://example.com/x", "/relative/path"} {
		if _, err := store.Add(target); err == nil {
			t.Errorf("expected error for target %q", target)
		}
	}
}

func TestStore_ResolveUnknownKey(t *testing.T) {
	store := NewStore()
	_, err := store.Resolve("zz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServer_CreateAndRedirect(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/links", "application/json",
		strings.NewReader(`{"url": "https://example.com/docs"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	redirect, err := client.Get(ts.URL + "/1")
	require.NoError(t, err)
	defer func() { _ = redirect.Body.Close() }()

	assert.Equal(t, http.StatusFound, redirect.StatusCode)
	assert.Equal(t, "https://example.com/docs", redirect.Header.Get("Location"))
}

func TestServer_CreateInvalidBody(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/links", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_UnknownKeyIs404(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/zzz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StatsCountsActivity(t *testing.T) {
	server, store := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	_, err := store.Add("https://example.com")
	require.NoError(t, err)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	for i := 0; i < 3; i++ {
		resp, err := client.Get(ts.URL + "/1")
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	resp, err := client.Get(ts.URL + "/miss")
	require.NoError(t, err)
	_ = resp.Body.Close()

	stats := server.metrics.Snapshot()
	assert.Equal(t, int64(3), stats.Redirects)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
