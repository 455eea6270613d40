// Package config resolves the suite's settings from environment variables,
// with per-command flags layered on top by each binary.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variable names shared by all commands.
const (
	EnvOrg               = "AZDO_ORG"
	EnvProject           = "AZDO_PROJECT"
	EnvPAT               = "AZDO_PAT"
	EnvTenant            = "ADOTOOLS_TENANT"
	EnvClientID          = "ADOTOOLS_CLIENT_ID"
	EnvGroup             = "ADOTOOLS_GROUP"
	EnvCacheDir          = "ADOTOOLS_CACHE_DIR"
	EnvFallbackReviewers = "ADOTOOLS_FALLBACK_REVIEWERS"

	// PAT-only identity fallback, used when no AAD app is configured and
	// the current user cannot be read from token claims or Graph.
	EnvUserID   = "AZDO_USER_ID"
	EnvUserName = "AZDO_USER_NAME"
)

// azdoScope is the delegated-permission scope of the Azure DevOps service.
const azdoScope = "499b84ac-1321-427f-aa17-267ca6975798/.default"

// graphScopes are the Microsoft Graph permissions the tools need.
var graphScopes = []string{"User.Read", "GroupMember.Read.All", "offline_access"}

// Settings holds the resolved suite configuration.
type Settings struct {
	Org               string
	Project           string
	PAT               string
	TenantID          string
	ClientID          string
	GroupName         string
	CacheDir          string
	UserID            string
	UserName          string
	FallbackReviewers []string
}

// FromEnv reads settings from the environment. Unset values stay empty;
// each command validates what it actually needs.
func FromEnv() Settings {
	s := Settings{
		Org:       os.Getenv(EnvOrg),
		Project:   os.Getenv(EnvProject),
		PAT:       os.Getenv(EnvPAT),
		TenantID:  os.Getenv(EnvTenant),
		ClientID:  os.Getenv(EnvClientID),
		GroupName: os.Getenv(EnvGroup),
		CacheDir:  os.Getenv(EnvCacheDir),
		UserID:    os.Getenv(EnvUserID),
		UserName:  os.Getenv(EnvUserName),
	}
	if raw := os.Getenv(EnvFallbackReviewers); raw != "" {
		s.FallbackReviewers = SplitList(raw)
	}
	if s.CacheDir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			s.CacheDir = filepath.Join(base, "adotools")
		}
	}
	return s
}

// AzdoScopes returns the OAuth scopes for Azure DevOps access.
func AzdoScopes() []string {
	return []string{azdoScope, "offline_access"}
}

// GraphScopes returns the OAuth scopes for Microsoft Graph access.
func GraphScopes() []string {
	return append([]string(nil), graphScopes...)
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
