// Command review lists active pull requests with reviewer-status columns:
// the approval ratio among the API reviewers group, the current user's
// vote code, and an approved-by-me marker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/devgrove/adotools/internal/cli"
	"github.com/devgrove/adotools/pkg/config"
	"github.com/devgrove/adotools/pkg/output"
	"github.com/devgrove/adotools/pkg/review"
)

var (
	org     = flag.String("org", "", "Azure DevOps organization (defaults to $AZDO_ORG)")
	project = flag.String("project", "", "Azure DevOps project (defaults to $AZDO_PROJECT)")
	repos   = flag.String("repos", "", "Comma-separated repositories to scan (required)")
	group   = flag.String("group", "", "API reviewers group name (defaults to $ADOTOOLS_GROUP)")
	mine    = flag.Bool("mine", false, "Only show PRs where I am an active required reviewer")
)

func main() {
	flag.Parse()

	settings := config.FromEnv()
	if *org != "" {
		settings.Org = *org
	}
	if *project != "" {
		settings.Project = *project
	}
	if *group != "" {
		settings.GroupName = *group
	}

	repoList := config.SplitList(*repos)
	if len(repoList) == 0 {
		log.Fatal("at least one repository is required (-repos)")
	}
	if settings.Org == "" || settings.Project == "" {
		log.Fatal("organization and project are required (-org/-project or AZDO_ORG/AZDO_PROJECT)")
	}

	ctx := context.Background()
	env, err := cli.Build(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to set up clients: %v", err)
	}

	membership := review.ResolveMembership(ctx, env.Resolver, settings.GroupName, settings.FallbackReviewers)
	classifier := review.NewClassifier(membership, env.Me)

	table := output.NewTable("PR", "Repo", "Title", "Author", "API", "Mine", "")
	rows := 0
	for _, repo := range repoList {
		prs, err := env.Azdo.ActivePullRequests(ctx, repo)
		if err != nil {
			log.Fatalf("Failed to list pull requests for %s: %v", repo, err)
		}
		for i := range prs {
			pr := &prs[i]
			status := classifier.MyVoteStatus(pr)
			if *mine && status == review.StatusNotActive {
				continue
			}
			mark := ""
			if classifier.ApprovedByMe(pr) {
				mark = "✔"
			}
			table.AddRow(
				strconv.Itoa(pr.ID),
				pr.Repository,
				output.Truncate(pr.Title, 48),
				pr.Author,
				output.RatioCell(classifier.ApprovalRatio(pr)),
				output.VoteCell(status),
				mark,
			)
			rows++
		}
	}

	if rows == 0 {
		fmt.Println("No matching pull requests.")
		return
	}
	fmt.Print(table.Render())
}
