package azdo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devgrove/adotools/pkg/cache"
	"github.com/devgrove/adotools/pkg/types"
)

// workItemBatchLimit is the maximum number of ids per workitems request.
const workItemBatchLimit = 200

// assignedWIQL selects the open work items assigned to the calling user,
// most recently changed first.
const assignedWIQL = `SELECT [System.Id] FROM WorkItems ` +
	`WHERE [System.AssignedTo] = @Me AND [System.State] <> 'Closed' AND [System.State] <> 'Removed' ` +
	`ORDER BY [System.ChangedDate] DESC`

// AssignedWorkItems runs the assigned-to-me WIQL query and resolves the
// resulting ids into work items.
func (c *Client) AssignedWorkItems(ctx context.Context) ([]types.WorkItem, error) {
	cacheKey := fmt.Sprintf("azdo:workitems:%s/%s:assigned", c.org, c.project)
	if cached, ok := c.cache.Get(cacheKey); ok {
		if items, ok := remarshal[[]types.WorkItem](cached); ok {
			return items, nil
		}
	}

	ids, err := c.queryWorkItemIDs(ctx, assignedWIQL)
	if err != nil {
		return nil, err
	}
	items, err := c.workItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(cacheKey, items, cache.TTLWorkItems)
	return items, nil
}

// queryWorkItemIDs executes a WIQL query and returns the matching ids.
func (c *Client) queryWorkItemIDs(ctx context.Context, wiql string) ([]int, error) {
	apiURL := c.apiURL("wit/wiql", nil)
	body := map[string]string{"query": wiql}

	resp, err := c.doRequest(ctx, http.MethodPost, apiURL, body)
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WIQL query failed (status %d)", resp.StatusCode)
	}

	var payload struct {
		WorkItems []struct {
			ID int `json:"id"`
		} `json:"workItems"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode WIQL response: %w", err)
	}

	ids := make([]int, 0, len(payload.WorkItems))
	for _, wi := range payload.WorkItems {
		ids = append(ids, wi.ID)
	}
	return ids, nil
}

// workItems resolves ids into work items, batching requests to stay under
// the API's per-request id limit.
func (c *Client) workItems(ctx context.Context, ids []int) ([]types.WorkItem, error) {
	items := make([]types.WorkItem, 0, len(ids))
	for start := 0; start < len(ids); start += workItemBatchLimit {
		end := min(start+workItemBatchLimit, len(ids))
		batch, err := c.workItemBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}
	return items, nil
}

func (c *Client) workItemBatch(ctx context.Context, ids []int) ([]types.WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.Itoa(id)
	}
	query := url.Values{}
	query.Set("ids", strings.Join(strIDs, ","))
	query.Set("fields", "System.Id,System.Title,System.State,System.WorkItemType,System.AssignedTo,System.ChangedDate")
	apiURL := c.apiURL("wit/workitems", query)

	resp, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	defer drainAndCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get work items (status %d)", resp.StatusCode)
	}

	var payload struct {
		Value []struct {
			Fields struct {
				Title      string `json:"System.Title"`
				State      string `json:"System.State"`
				Type       string `json:"System.WorkItemType"`
				AssignedTo struct {
					DisplayName string `json:"displayName"`
				} `json:"System.AssignedTo"`
				ChangedDate string `json:"System.ChangedDate"`
			} `json:"fields"`
			ID int `json:"id"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode work items: %w", err)
	}

	items := make([]types.WorkItem, 0, len(payload.Value))
	for _, wi := range payload.Value {
		changedAt, err := time.Parse(time.RFC3339, wi.Fields.ChangedDate)
		if err != nil {
			slog.Warn("Failed to parse ChangedDate", "work_item", wi.ID, "error", err)
		}
		items = append(items, types.WorkItem{
			ID:         wi.ID,
			Title:      wi.Fields.Title,
			State:      wi.Fields.State,
			Type:       wi.Fields.Type,
			AssignedTo: wi.Fields.AssignedTo.DisplayName,
			ChangedAt:  changedAt,
		})
	}
	return items, nil
}
