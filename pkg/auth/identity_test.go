package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	// The parser never verifies, so any signing key works for tests.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestIdentityFromToken(t *testing.T) {
	token := signedTestToken(t, jwt.MapClaims{
		"oid":  "aaaa-1111",
		"name": "Jo Currie",
		"upn":  "jo.currie@contoso.com",
	})

	id, err := IdentityFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "aaaa-1111", id.ID)
	assert.Equal(t, "Jo Currie", id.DisplayName)
	assert.Equal(t, "jo.currie@contoso.com", id.UPN)
	assert.Equal(t, "jo.currie@contoso.com", id.Mail)
}

func TestIdentityFromToken_PreferredUsernameFallback(t *testing.T) {
	token := signedTestToken(t, jwt.MapClaims{
		"oid":                "aaaa-1111",
		"name":               "Jo Currie",
		"preferred_username": "jo.currie@contoso.com",
	})

	id, err := IdentityFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "jo.currie@contoso.com", id.UPN)
}

func TestIdentityFromToken_Invalid(t *testing.T) {
	_, err := IdentityFromToken("")
	assert.Error(t, err)

	_, err = IdentityFromToken("not-a-jwt")
	assert.Error(t, err)

	// Parsable token without any identity claims.
	token := signedTestToken(t, jwt.MapClaims{"aud": "someone"})
	_, err = IdentityFromToken(token)
	assert.Error(t, err)
}
