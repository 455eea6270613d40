package azdo

import (
	"context"
	"encoding/base64"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{
		BaseURL: server.URL,
		Org:     "contoso",
		Project: "platform",
		PAT:     "test-pat",
	})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresOrgAndProject(t *testing.T) {
	_, err := New(Config{PAT: "x", Project: "p"})
	assert.Error(t, err)

	_, err = New(Config{PAT: "x", Org: "o"})
	assert.Error(t, err)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{Org: "o", Project: "p"})
	assert.Error(t, err)
}

func TestDoRequest_PATBasicAuth(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	resp, err := c.doRequest(context.Background(), http.MethodGet, c.apiURL("git/repositories", nil), nil)
	require.NoError(t, err)
	drainAndCloseBody(resp.Body)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(":test-pat"))
	assert.Equal(t, want, gotAuth)
}

func TestAPIURL_IncludesVersionAndProject(t *testing.T) {
	c := &Client{baseURL: "https://dev.azure.com", org: "contoso", project: "platform"}
	got := c.apiURL("git/repositories/api/pullrequests", nil)

	assert.Contains(t, got, "https://dev.azure.com/contoso/platform/_apis/git/repositories/api/pullrequests")
	assert.Contains(t, got, "api-version=7.1")
}

func TestClampVote(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int8
	}{
		{"approved", 10, 10},
		{"rejected", -10, -10},
		{"zero", 0, 0},
		{"above int8 range", 1000, math.MaxInt8},
		{"below int8 range", -1000, math.MinInt8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampVote(tt.in))
		})
	}
}
