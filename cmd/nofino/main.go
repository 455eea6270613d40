// Command nofino ("notification overview") lists the open work items
// assigned to the current user, most recently changed first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/devgrove/adotools/internal/cli"
	"github.com/devgrove/adotools/pkg/config"
	"github.com/devgrove/adotools/pkg/output"
)

var (
	org     = flag.String("org", "", "Azure DevOps organization (defaults to $AZDO_ORG)")
	project = flag.String("project", "", "Azure DevOps project (defaults to $AZDO_PROJECT)")
	limit   = flag.Int("limit", 25, "Maximum work items to show")
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
	if settings.Org == "" || settings.Project == "" {
		log.Fatal("organization and project are required (-org/-project or AZDO_ORG/AZDO_PROJECT)")
	}

	ctx := context.Background()
	env, err := cli.Build(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to set up clients: %v", err)
	}

	items, err := env.Azdo.AssignedWorkItems(ctx)
	if err != nil {
		log.Fatalf("Failed to query work items: %v", err)
	}
	if len(items) == 0 {
		fmt.Println("Nothing assigned to you. Enjoy it while it lasts.")
		return
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ChangedAt.After(items[j].ChangedAt)
	})
	if len(items) > *limit {
		items = items[:*limit]
	}

	table := output.NewTable("Id", "Type", "State", "Title", "Changed")
	for _, wi := range items {
		table.AddRow(
			strconv.Itoa(wi.ID),
			wi.Type,
			wi.State,
			output.Truncate(wi.Title, 56),
			output.Age(wi.ChangedAt),
		)
	}
	fmt.Print(table.Render())
}
