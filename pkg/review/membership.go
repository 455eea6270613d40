package review

import (
	"context"
	"log/slog"

	"github.com/devgrove/adotools/pkg/graph"
	"github.com/devgrove/adotools/pkg/types"
)

// GroupResolver is the slice of the Graph client membership resolution
// needs. Satisfied by *graph.Client.
type GroupResolver interface {
	GroupID(ctx context.Context, displayName string) (string, error)
	TransitiveMembers(ctx context.Context, groupID string) ([]types.GroupMember, error)
}

// ResolveMembership builds the API-reviewers identifier set from the
// directory group, falling back to the static list when Graph is
// unavailable. A live resolution failure is a warning, not a fatal error:
// the tools still render tables, just against the fallback set.
func ResolveMembership(ctx context.Context, resolver GroupResolver, groupName string, fallback []string) []string {
	if resolver == nil || groupName == "" {
		slog.Info("Using static fallback reviewer list", "count", len(fallback))
		return fallback
	}

	groupID, err := resolver.GroupID(ctx, groupName)
	if err != nil {
		slog.Warn("Failed to resolve reviewer group, using fallback list", "group", groupName, "error", err)
		return fallback
	}
	members, err := resolver.TransitiveMembers(ctx, groupID)
	if err != nil {
		slog.Warn("Failed to list group members, using fallback list", "group", groupName, "error", err)
		return fallback
	}

	set := graph.MembershipSet(members)
	if len(set) == 0 {
		slog.Warn("Reviewer group resolved empty, using fallback list", "group", groupName)
		return fallback
	}
	slog.Info("Resolved reviewer group", "group", groupName, "identifiers", len(set))
	return set
}
