package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/devgrove/adotools/pkg/cache"
	"github.com/devgrove/adotools/pkg/types"
)

// memberPayload is the wire shape of a directory object in member listings.
type memberPayload struct {
	ODataType   string `json:"@odata.type"`
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Mail        string `json:"mail"`
	UPN         string `json:"userPrincipalName"`
}

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (*types.Identity, error) {
	cacheKey := "graph:me"
	if cached, ok := c.cache.Get(cacheKey); ok {
		if id, ok := remarshal[types.Identity](cached); ok {
			return &id, nil
		}
	}

	var payload struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Mail        string `json:"mail"`
		UPN         string `json:"userPrincipalName"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/me?$select=id,displayName,mail,userPrincipalName", &payload); err != nil {
		return nil, err
	}

	id := types.Identity{
		ID:          payload.ID,
		DisplayName: payload.DisplayName,
		Mail:        payload.Mail,
		UPN:         payload.UPN,
	}
	c.cache.SetWithTTL(cacheKey, id, cache.TTLProfile)
	return &id, nil
}

// GroupID resolves a group's object id from its display name.
func (c *Client) GroupID(ctx context.Context, displayName string) (string, error) {
	filter := url.QueryEscape(fmt.Sprintf("displayName eq '%s'", strings.ReplaceAll(displayName, "'", "''")))

	var payload struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/groups?$filter="+filter+"&$select=id", &payload); err != nil {
		return "", err
	}
	if len(payload.Value) == 0 {
		return "", fmt.Errorf("group %q not found", displayName)
	}
	return payload.Value[0].ID, nil
}

// TransitiveMembers enumerates a group's transitive membership, following
// @odata.nextLink paging until exhausted. Nested groups are returned as
// entries too; callers filter by Type when they only want users.
func (c *Client) TransitiveMembers(ctx context.Context, groupID string) ([]types.GroupMember, error) {
	cacheKey := "graph:members:" + groupID
	if cached, ok := c.cache.Get(cacheKey); ok {
		if members, ok := remarshal[[]types.GroupMember](cached); ok {
			return members, nil
		}
	}

	next := c.baseURL + "/groups/" + url.PathEscape(groupID) +
		"/transitiveMembers?$select=id,displayName,mail,userPrincipalName&$top=100"

	var members []types.GroupMember
	for next != "" {
		var page struct {
			NextLink string          `json:"@odata.nextLink"`
			Value    []memberPayload `json:"value"`
		}
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, m := range page.Value {
			members = append(members, types.GroupMember{
				ID:          m.ID,
				DisplayName: m.DisplayName,
				Mail:        m.Mail,
				UPN:         m.UPN,
				Type:        m.ODataType,
			})
		}
		next = page.NextLink
	}

	c.cache.SetWithTTL(cacheKey, members, cache.TTLGroupMembers)
	return members, nil
}

// MembershipSet flattens group members into the identifier set the
// classifier consumes: account ids, mails, and UPNs of user members.
func MembershipSet(members []types.GroupMember) []string {
	var set []string
	for _, m := range members {
		if m.Type != "" && m.Type != "#microsoft.graph.user" {
			continue
		}
		for _, id := range []string{m.ID, m.Mail, m.UPN} {
			if id != "" {
				set = append(set, id)
			}
		}
	}
	return set
}

// remarshal converts a cached any value back into a concrete type via JSON.
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
