package azdo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignedWorkItems(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contoso/platform/_apis/wit/wiql":
			require.Equal(t, http.MethodPost, r.Method)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body["query"], "@Me")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"workItems": [{"id": 7}, {"id": 9}]}`))
		case "/contoso/platform/_apis/wit/workitems":
			assert.Equal(t, "7,9", r.URL.Query().Get("ids"))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{
				"value": [
					{
						"id": 7,
						"fields": {
							"System.Title": "Fix flaky deployment",
							"System.State": "Active",
							"System.WorkItemType": "Bug",
							"System.AssignedTo": {"displayName": "Dana Webb"},
							"System.ChangedDate": "2025-11-02T12:00:00Z"
						}
					},
					{
						"id": 9,
						"fields": {
							"System.Title": "Review API surface",
							"System.State": "New",
							"System.WorkItemType": "Task",
							"System.AssignedTo": {"displayName": "Dana Webb"},
							"System.ChangedDate": "2025-11-01T08:30:00Z"
						}
					}
				]
			}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	items, err := c.AssignedWorkItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 7, items[0].ID)
	assert.Equal(t, "Fix flaky deployment", items[0].Title)
	assert.Equal(t, "Bug", items[0].Type)
	assert.Equal(t, "Dana Webb", items[0].AssignedTo)
	assert.Equal(t, "Task", items[1].Type)
}

func TestAssignedWorkItems_EmptyResult(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/contoso/platform/_apis/wit/wiql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"workItems": []}`))
	}))

	items, err := c.AssignedWorkItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestQueryWorkItemIDs_ErrorStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := c.queryWorkItemIDs(context.Background(), "SELECT [System.Id] FROM WorkItems")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
