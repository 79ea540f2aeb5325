package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/adityakmrtiwari/CliNote/internal/config"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
)

// Verifier checks ID tokens issued by an external provider (Keycloak).
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier creates a new OIDC verifier for the given issuer and client ID
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Issuer returns the Keycloak realm issuer URL, or "" when Keycloak is not configured.
// Without a realm the URL itself is taken as the issuer.
func Issuer(kc config.KeycloakConfig) string {
	if kc.URL == "" || kc.ClientID == "" {
		return ""
	}
	base := strings.TrimRight(kc.URL, "/")
	if kc.Realm == "" {
		return base
	}
	return base + "/realms/" + kc.Realm
}

// Verify verifies the raw ID token and returns it as a middleware.Token
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
