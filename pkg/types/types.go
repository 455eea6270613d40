// Package types contains shared data structures used across the adotools suite.
//
//nolint:revive // "types" is a standard Go package name for shared data structures
package types

import "time"

// Vote values recorded by Azure DevOps for a pull request reviewer.
const (
	VoteApproved        int8 = 10
	VoteApprovedSuggest int8 = 5
	VoteNone            int8 = 0
	VoteWaitForAuthor   int8 = -5
	VoteRejected        int8 = -10
)

// Reviewer represents one reviewer entry on a pull request.
//
// Azure DevOps never removes a reviewer from the list: when someone is
// unassigned the entry stays behind with IsRequired=false for audit
// purposes. Classification must treat such entries as inactive.
type Reviewer struct {
	ID          string
	UniqueName  string // usually the reviewer's email address
	DisplayName string
	Vote        int8
	IsRequired  bool
}

// PullRequest represents an Azure DevOps pull request.
type PullRequest struct {
	CreatedAt  time.Time
	Title      string
	Status     string // "active", "completed", "abandoned"
	Author     string
	AuthorMail string
	Repository string
	Project    string
	SourceRef  string
	TargetRef  string
	URL        string
	Reviewers  []Reviewer
	ID         int
	IsDraft    bool
}

// Identity is an account as resolved from Microsoft Graph or an AAD token.
type Identity struct {
	ID          string // AAD object id or Azure DevOps account id
	DisplayName string
	Mail        string
	UPN         string
}

// GroupMember is one entry of a directory group's transitive membership.
type GroupMember struct {
	ID          string
	DisplayName string
	Mail        string
	UPN         string
	Type        string // "#microsoft.graph.user", "#microsoft.graph.group", ...
}

// WorkItem holds the subset of an Azure DevOps work item the tools render.
type WorkItem struct {
	ChangedAt  time.Time
	Title      string
	State      string
	Type       string
	AssignedTo string
	ID         int
}
