package auth

import (
	"errors"
	"fmt"

	"github.com/devgrove/adotools/pkg/types"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityFromToken recovers the signed-in user's identity from the claims
// of an AAD access token. The token is parsed without signature
// verification: it was just issued to us over TLS, and the claims are only
// used to label table columns and match reviewer entries, not to grant
// anything.
func IdentityFromToken(accessToken string) (*types.Identity, error) {
	if accessToken == "" {
		return nil, errors.New("empty access token")
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type in access token")
	}

	id := &types.Identity{
		ID:          stringClaim(claims, "oid"),
		DisplayName: stringClaim(claims, "name"),
		UPN:         stringClaim(claims, "upn"),
	}
	if id.UPN == "" {
		id.UPN = stringClaim(claims, "preferred_username")
	}
	id.Mail = id.UPN

	if id.ID == "" && id.DisplayName == "" {
		return nil, errors.New("access token carries no identity claims")
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
