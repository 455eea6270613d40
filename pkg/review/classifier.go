// Package review classifies pull request reviewer votes against a fixed
// reviewer-group membership and the current user's identity.
package review

import (
	"fmt"
	"strings"

	"github.com/devgrove/adotools/pkg/types"
)

// Vote status codes rendered in the console tables. Fixed width of six
// characters so columns line up without padding logic downstream.
const (
	StatusApproved      = "Apprvd"
	StatusSuggestions   = "Sugges"
	StatusNoVote        = "NoVote"
	StatusWaitForAuthor = "Wait4A"
	StatusRejected      = "Reject"
	StatusUnknown       = "Unknow"
	StatusNotActive     = "---"
)

// Classifier computes reviewer-status values for pull requests.
//
// It holds an immutable membership set and the current user's identity,
// both captured at construction. All methods are pure: they never return
// errors, never mutate state, and are safe for concurrent use.
type Classifier struct {
	membership map[string]struct{}
	current    types.Identity
}

// NewClassifier builds a classifier for the given reviewer-group membership
// and current user. Membership identifiers may be emails, UPNs, or account
// ids in any mix; matching is case-insensitive.
func NewClassifier(membership []string, current types.Identity) *Classifier {
	set := make(map[string]struct{}, len(membership))
	for _, id := range membership {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &Classifier{membership: set, current: current}
}

// isMember reports whether a reviewer belongs to the membership set,
// matching on either the account id or the email form of the identifier.
func (c *Classifier) isMember(r types.Reviewer) bool {
	if id := strings.ToLower(r.ID); id != "" {
		if _, ok := c.membership[id]; ok {
			return true
		}
	}
	if mail := strings.ToLower(r.UniqueName); mail != "" {
		if _, ok := c.membership[mail]; ok {
			return true
		}
	}
	return false
}

// ApprovalRatio returns "approved/total" over the required reviewers that
// belong to the membership set. A vote of 5 ("approved with suggestions")
// or higher counts as approved. "0/0" is a valid result when no required
// group member is on the PR, not an error.
func (c *Classifier) ApprovalRatio(pr *types.PullRequest) string {
	if pr == nil {
		return "0/0"
	}
	approved, total := 0, 0
	for _, r := range pr.Reviewers {
		if !r.IsRequired || !c.isMember(r) {
			continue
		}
		total++
		if r.Vote >= types.VoteApprovedSuggest {
			approved++
		}
	}
	return fmt.Sprintf("%d/%d", approved, total)
}

// MyVoteStatus returns the six-character code for the current user's vote
// on the PR, or "---" when the user is not an active required reviewer.
// Out-of-range vote values degrade to "Unknow" rather than failing.
func (c *Classifier) MyVoteStatus(pr *types.PullRequest) string {
	r, ok := c.findSelf(pr)
	if !ok || !r.IsRequired {
		return StatusNotActive
	}
	switch r.Vote {
	case types.VoteApproved:
		return StatusApproved
	case types.VoteApprovedSuggest:
		return StatusSuggestions
	case types.VoteNone:
		return StatusNoVote
	case types.VoteWaitForAuthor:
		return StatusWaitForAuthor
	case types.VoteRejected:
		return StatusRejected
	default:
		return StatusUnknown
	}
}

// ApprovedByMe reports whether the current user is a required reviewer who
// voted exactly 10 ("Approved"). A vote of 5 does not count here even
// though it counts toward the approval ratio; the stricter threshold is
// what gates "my work here is done" coloring in the tools.
func (c *Classifier) ApprovedByMe(pr *types.PullRequest) bool {
	r, ok := c.findSelf(pr)
	return ok && r.IsRequired && r.Vote == types.VoteApproved
}

// findSelf locates the current user's reviewer entry. Account id wins;
// a case-insensitive display-name match is kept as a fallback for legacy
// reviewer records that carry no id.
func (c *Classifier) findSelf(pr *types.PullRequest) (types.Reviewer, bool) {
	if pr == nil {
		return types.Reviewer{}, false
	}
	if c.current.ID != "" {
		for _, r := range pr.Reviewers {
			if strings.EqualFold(r.ID, c.current.ID) {
				return r, true
			}
		}
	}
	if c.current.DisplayName != "" {
		for _, r := range pr.Reviewers {
			if strings.EqualFold(r.DisplayName, c.current.DisplayName) {
				return r, true
			}
		}
	}
	return types.Reviewer{}, false
}
