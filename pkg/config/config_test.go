package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvOrg, "contoso")
	t.Setenv(EnvProject, "platform")
	t.Setenv(EnvPAT, "pat-123")
	t.Setenv(EnvGroup, "API Reviewers")
	t.Setenv(EnvFallbackReviewers, "a@contoso.com, b@contoso.com,,")

	s := FromEnv()
	assert.Equal(t, "contoso", s.Org)
	assert.Equal(t, "platform", s.Project)
	assert.Equal(t, "pat-123", s.PAT)
	assert.Equal(t, "API Reviewers", s.GroupName)
	assert.Equal(t, []string{"a@contoso.com", "b@contoso.com"}, s.FallbackReviewers)
	assert.NotEmpty(t, s.CacheDir, "cache dir should default under the user cache dir")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"x"}, SplitList("x"))
	assert.Equal(t, []string{"x", "y"}, SplitList(" x ,y "))
}

func TestScopes(t *testing.T) {
	assert.Contains(t, AzdoScopes(), "offline_access")
	assert.Contains(t, GraphScopes(), "GroupMember.Read.All")
}
