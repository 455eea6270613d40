// Command gapir ("get API reviews") lists the pull requests currently
// waiting on the API reviewers group, across the configured repositories.
// PRs without any required group member are skipped: they are not in the
// group's review queue.
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
	drafts  = flag.Bool("drafts", false, "Include draft pull requests")
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

	table := output.NewTable("PR", "Repo", "Title", "Author", "Age", "API")
	rows := 0
	for _, repo := range repoList {
		prs, err := env.Azdo.ActivePullRequests(ctx, repo)
		if err != nil {
			log.Fatalf("Failed to list pull requests for %s: %v", repo, err)
		}
		for i := range prs {
			pr := &prs[i]
			if pr.IsDraft && !*drafts {
				continue
			}
			ratio := classifier.ApprovalRatio(pr)
			if ratio == "0/0" {
				// No required group member on this PR.
				continue
			}
			table.AddRow(
				strconv.Itoa(pr.ID),
				pr.Repository,
				output.Truncate(pr.Title, 48),
				pr.Author,
				output.Age(pr.CreatedAt),
				output.RatioCell(ratio),
			)
			rows++
		}
	}

	if rows == 0 {
		fmt.Println("No pull requests are waiting on the group.")
		return
	}
	fmt.Print(table.Render())
}
