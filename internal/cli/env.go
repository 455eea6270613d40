// Package cli wires the shared client environment used by the adotools
// commands: authentication, the Azure DevOps client, and optionally the
// Microsoft Graph client with the resolved current user.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devgrove/adotools/pkg/auth"
	"github.com/devgrove/adotools/pkg/azdo"
	"github.com/devgrove/adotools/pkg/config"
	"github.com/devgrove/adotools/pkg/graph"
	"github.com/devgrove/adotools/pkg/review"
	"github.com/devgrove/adotools/pkg/types"
)

// Environment bundles the wired clients and the resolved current user.
type Environment struct {
	Azdo     *azdo.Client
	Graph    *graph.Client
	Resolver review.GroupResolver
	Me       types.Identity
}

// Build wires auth and clients from the settings. Credentials resolve in
// this order: a PAT covers Azure DevOps directly; an AAD app (tenant +
// client id) enables the device-code flow for Azure DevOps and Graph.
// Graph is only wired when the AAD app is configured; without it, group
// resolution falls back to the static reviewer list.
func Build(ctx context.Context, settings config.Settings) (*Environment, error) {
	env := &Environment{}
	hasApp := settings.TenantID != "" && settings.ClientID != ""

	var azdoSource azdo.TokenSource
	if settings.PAT == "" {
		if !hasApp {
			return nil, fmt.Errorf("either %s or an AAD app (%s, %s) must be configured",
				config.EnvPAT, config.EnvTenant, config.EnvClientID)
		}
		source, err := auth.NewDeviceCodeSource(auth.Config{
			TenantID:  settings.TenantID,
			ClientID:  settings.ClientID,
			Scopes:    config.AzdoScopes(),
			CacheDir:  settings.CacheDir,
			CacheName: "azdo-token.json",
		})
		if err != nil {
			return nil, err
		}
		azdoSource = source
	}

	client, err := azdo.New(azdo.Config{
		Org:         settings.Org,
		Project:     settings.Project,
		PAT:         settings.PAT,
		TokenSource: azdoSource,
		CacheDir:    settings.CacheDir,
	})
	if err != nil {
		return nil, err
	}
	env.Azdo = client

	if hasApp {
		graphSource, err := auth.NewDeviceCodeSource(auth.Config{
			TenantID:  settings.TenantID,
			ClientID:  settings.ClientID,
			Scopes:    config.GraphScopes(),
			CacheDir:  settings.CacheDir,
			CacheName: "graph-token.json",
		})
		if err != nil {
			return nil, err
		}
		graphClient, err := graph.New(graph.Config{
			TokenSource: graphSource,
			CacheDir:    settings.CacheDir,
		})
		if err != nil {
			return nil, err
		}
		env.Graph = graphClient
		env.Resolver = graphClient

		me, err := graphClient.Me(ctx)
		if err != nil {
			// Graph profile reads need User.Read consent; the token
			// claims carry enough identity to classify votes without it.
			slog.Warn("Failed to read Graph profile, using token claims", "error", err)
			token, tokenErr := graphSource.Token(ctx)
			if tokenErr != nil {
				return nil, fmt.Errorf("failed to resolve current user: %w", err)
			}
			me, err = auth.IdentityFromToken(token)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve current user from token claims: %w", err)
			}
		}
		env.Me = *me
		return env, nil
	}

	// PAT-only mode: the current user comes from the fallback environment
	// variables, since there is no token with identity claims to read.
	env.Me = types.Identity{ID: settings.UserID, DisplayName: settings.UserName}
	return env, nil
}
