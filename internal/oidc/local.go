package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/adityakmrtiwari/CliNote/internal/models"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
)

// UserUpserter maps provider claims to a local account.
type UserUpserter interface {
	UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error)
}

// LocalUserVerifier verifies a provider token and rewrites "sub" to the local
// user id, so patients and notes are always keyed by local ids. The provider
// subject is kept as "oidc_sub".
type LocalUserVerifier struct {
	Inner middleware.Verifier
	Users UserUpserter
}

func (v *LocalUserVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	tok, err := v.Inner.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	u, err := v.Users.UpsertFromClaims(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	if u == nil {
		return nil, errors.New("token has no subject")
	}
	claims["oidc_sub"] = claims["sub"]
	claims["sub"] = u.ID
	return &claimsToken{claims: claims}, nil
}
