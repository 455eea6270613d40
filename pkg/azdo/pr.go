package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/devgrove/adotools/pkg/cache"
	"github.com/devgrove/adotools/pkg/types"
)

// prPayload mirrors the wire shape of a pull request in the Azure DevOps
// git API. Only the fields the tools consume are mapped.
type prPayload struct {
	PullRequestID int    `json:"pullRequestId"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	IsDraft       bool   `json:"isDraft"`
	CreationDate  string `json:"creationDate"`
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	CreatedBy     struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		UniqueName  string `json:"uniqueName"`
	} `json:"createdBy"`
	Repository struct {
		Name    string `json:"name"`
		WebURL  string `json:"webUrl"`
		Project struct {
			Name string `json:"name"`
		} `json:"project"`
	} `json:"repository"`
	Reviewers []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		UniqueName  string `json:"uniqueName"`
		Vote        int    `json:"vote"`
		IsRequired  bool   `json:"isRequired"`
	} `json:"reviewers"`
}

// clampVote narrows the wire vote to int8 with explicit bounds handling.
// Azure DevOps only emits {10,5,0,-5,-10}, but an out-of-range value must
// land in the classifier's unknown bucket instead of wrapping around.
func clampVote(v int) int8 {
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	if v < math.MinInt8 {
		return math.MinInt8
	}
	return int8(v)
}

func (p *prPayload) toPullRequest() types.PullRequest {
	createdAt, err := time.Parse(time.RFC3339, p.CreationDate)
	if err != nil {
		slog.Warn("Failed to parse creationDate", "pr", p.PullRequestID, "error", err)
		createdAt = time.Time{}
	}

	reviewers := make([]types.Reviewer, 0, len(p.Reviewers))
	for _, r := range p.Reviewers {
		reviewers = append(reviewers, types.Reviewer{
			ID:          r.ID,
			UniqueName:  r.UniqueName,
			DisplayName: r.DisplayName,
			Vote:        clampVote(r.Vote),
			IsRequired:  r.IsRequired,
		})
	}

	return types.PullRequest{
		ID:         p.PullRequestID,
		Title:      p.Title,
		Status:     p.Status,
		IsDraft:    p.IsDraft,
		Author:     p.CreatedBy.DisplayName,
		AuthorMail: p.CreatedBy.UniqueName,
		Repository: p.Repository.Name,
		Project:    p.Repository.Project.Name,
		SourceRef:  p.SourceRefName,
		TargetRef:  p.TargetRefName,
		CreatedAt:  createdAt,
		Reviewers:  reviewers,
	}
}

// ActivePullRequests lists the active pull requests of a repository,
// including each reviewer entry with its vote and required flag.
func (c *Client) ActivePullRequests(ctx context.Context, repo string) ([]types.PullRequest, error) {
	cacheKey := fmt.Sprintf("azdo:prs:%s/%s/%s", c.org, c.project, repo)
	if cached, ok := c.cache.Get(cacheKey); ok {
		if prs, ok := remarshal[[]types.PullRequest](cached); ok {
			return prs, nil
		}
	}

	query := url.Values{}
	query.Set("searchCriteria.status", "active")
	apiURL := c.apiURL(fmt.Sprintf("git/repositories/%s/pullrequests", url.PathEscape(repo)), query)

	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list pull requests for %s (status %d)", repo, resp.StatusCode)
	}

	var payload struct {
		Value []prPayload `json:"value"`
		Count int         `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode pull request list: %w", err)
	}

	prs := make([]types.PullRequest, 0, len(payload.Value))
	for i := range payload.Value {
		prs = append(prs, payload.Value[i].toPullRequest())
	}

	c.cache.SetWithTTL(cacheKey, prs, cache.TTLPullRequests)
	return prs, nil
}

// PullRequest fetches a single pull request by id, always fresh.
// The PR under examination must reflect votes cast seconds ago.
func (c *Client) PullRequest(ctx context.Context, repo string, id int) (*types.PullRequest, error) {
	apiURL := c.apiURL(fmt.Sprintf("git/repositories/%s/pullrequests/%s", url.PathEscape(repo), strconv.Itoa(id)), nil)

	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("pull request %d not found in %s", id, repo)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get pull request %d (status %d)", id, resp.StatusCode)
	}

	var payload prPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode pull request: %w", err)
	}

	pr := payload.toPullRequest()
	return &pr, nil
}

// remarshal converts a cached any value (deserialized JSON) back into a
// concrete type. Cache values round-trip through JSON on the disk tier, so
// the stored shape is maps and slices rather than the original structs.
func remarshal[T any](value any) (T, bool) {
	var out T
	raw, err := json.Marshal(value)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}
