package azdo

import (
	"context"
	"net/http"
	"testing"

	"github.com/devgrove/adotools/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prListPayload = `{
	"count": 1,
	"value": [
		{
			"pullRequestId": 421,
			"title": "Add rate limiting to the gateway",
			"status": "active",
			"isDraft": false,
			"creationDate": "2025-11-03T09:15:00Z",
			"sourceRefName": "refs/heads/feature/rate-limit",
			"targetRefName": "refs/heads/main",
			"createdBy": {
				"id": "b1c2",
				"displayName": "Dana Webb",
				"uniqueName": "dana.webb@contoso.com"
			},
			"repository": {
				"name": "gateway",
				"project": {"name": "platform"}
			},
			"reviewers": [
				{
					"id": "r-1",
					"displayName": "Sam Oak",
					"uniqueName": "sam.oak@contoso.com",
					"vote": 10,
					"isRequired": true
				},
				{
					"id": "r-2",
					"displayName": "Removed Reviewer",
					"uniqueName": "gone@contoso.com",
					"vote": 5,
					"isRequired": false
				}
			]
		}
	]
}`

func TestActivePullRequests_ParsesReviewers(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contoso/platform/_apis/git/repositories/gateway/pullrequests", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("searchCriteria.status"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(prListPayload))
	}))

	prs, err := c.ActivePullRequests(context.Background(), "gateway")
	require.NoError(t, err)
	require.Len(t, prs, 1)

	pr := prs[0]
	assert.Equal(t, 421, pr.ID)
	assert.Equal(t, "Add rate limiting to the gateway", pr.Title)
	assert.Equal(t, "Dana Webb", pr.Author)
	assert.Equal(t, "dana.webb@contoso.com", pr.AuthorMail)
	assert.Equal(t, "gateway", pr.Repository)
	assert.Equal(t, "platform", pr.Project)
	assert.False(t, pr.IsDraft)

	require.Len(t, pr.Reviewers, 2)
	assert.Equal(t, types.Reviewer{
		ID: "r-1", UniqueName: "sam.oak@contoso.com", DisplayName: "Sam Oak",
		Vote: 10, IsRequired: true,
	}, pr.Reviewers[0])
	// The unassigned entry keeps its vote but loses the required flag.
	assert.False(t, pr.Reviewers[1].IsRequired)
	assert.Equal(t, int8(5), pr.Reviewers[1].Vote)
}

func TestActivePullRequests_CachesList(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(prListPayload))
	}))

	_, err := c.ActivePullRequests(context.Background(), "gateway")
	require.NoError(t, err)
	_, err = c.ActivePullRequests(context.Background(), "gateway")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestPullRequest_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.PullRequest(context.Background(), "gateway", 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPullRequest_FetchesFresh(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/contoso/platform/_apis/git/repositories/gateway/pullrequests/421", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"pullRequestId": 421,
			"title": "Add rate limiting to the gateway",
			"status": "active",
			"creationDate": "2025-11-03T09:15:00Z",
			"createdBy": {"displayName": "Dana Webb", "uniqueName": "dana.webb@contoso.com"},
			"repository": {"name": "gateway", "project": {"name": "platform"}},
			"reviewers": []
		}`))
	}))

	for i := 0; i < 2; i++ {
		pr, err := c.PullRequest(context.Background(), "gateway", 421)
		require.NoError(t, err)
		assert.Equal(t, 421, pr.ID)
	}
	assert.Equal(t, 2, calls, "single-PR fetch must not be cached")
}
