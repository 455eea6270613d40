// Command groupcheck resolves a directory group through Microsoft Graph,
// prints its transitive members, and optionally tests whether given
// identities (emails or object ids) are members.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/devgrove/adotools/pkg/auth"
	"github.com/devgrove/adotools/pkg/config"
	"github.com/devgrove/adotools/pkg/graph"
	"github.com/devgrove/adotools/pkg/output"
)

var (
	group = flag.String("group", "", "Group display name (defaults to $ADOTOOLS_GROUP)")
	check = flag.String("check", "", "Comma-separated emails or ids to test for membership")
	quiet = flag.Bool("quiet", false, "Suppress the member table, only print check results")
)

func main() {
	flag.Parse()

	settings := config.FromEnv()
	if *group != "" {
		settings.GroupName = *group
	}
	if settings.GroupName == "" {
		log.Fatal("a group name is required (-group or ADOTOOLS_GROUP)")
	}
	if settings.TenantID == "" || settings.ClientID == "" {
		log.Fatalf("an AAD app is required (%s, %s)", config.EnvTenant, config.EnvClientID)
	}

	ctx := context.Background()
	source, err := auth.NewDeviceCodeSource(auth.Config{
		TenantID:  settings.TenantID,
		ClientID:  settings.ClientID,
		Scopes:    config.GraphScopes(),
		CacheDir:  settings.CacheDir,
		CacheName: "graph-token.json",
	})
	if err != nil {
		log.Fatalf("Failed to set up authentication: %v", err)
	}
	client, err := graph.New(graph.Config{TokenSource: source, CacheDir: settings.CacheDir})
	if err != nil {
		log.Fatalf("Failed to create Graph client: %v", err)
	}

	groupID, err := client.GroupID(ctx, settings.GroupName)
	if err != nil {
		log.Fatalf("Failed to resolve group: %v", err)
	}
	members, err := client.TransitiveMembers(ctx, groupID)
	if err != nil {
		log.Fatalf("Failed to list members: %v", err)
	}

	if !*quiet {
		table := output.NewTable("Name", "Mail", "Id", "Type")
		for _, m := range members {
			table.AddRow(m.DisplayName, m.Mail, m.ID, shortType(m.Type))
		}
		fmt.Print(table.Render())
		fmt.Printf("\n%d transitive members of %q\n", len(members), settings.GroupName)
	}

	checks := config.SplitList(*check)
	if len(checks) == 0 {
		return
	}

	set := make(map[string]struct{})
	for _, id := range graph.MembershipSet(members) {
		set[strings.ToLower(id)] = struct{}{}
	}
	missing := 0
	for _, candidate := range checks {
		_, ok := set[strings.ToLower(candidate)]
		verdict := "member"
		if !ok {
			verdict = "NOT a member"
			missing++
		}
		fmt.Printf("%s: %s\n", candidate, verdict)
	}
	if missing > 0 {
		os.Exit(1)
	}
}

// shortType strips the "#microsoft.graph." prefix for display.
func shortType(odataType string) string {
	return strings.TrimPrefix(odataType, "#microsoft.graph.")
}
