package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCClaims is what sign-in needs from a verified ID token.
type OIDCClaims struct {
	Issuer  string
	Subject string
	Email   string
	Name    string
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*OIDCClaims, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer and verifies tokens minted for clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return WrapOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

func WrapOIDCVerifier(v *oidc.IDTokenVerifier) IDTokenVerifier {
	return &oidcVerifier{verifier: v}
}

func (v *oidcVerifier) Verify(ctx context.Context, rawIDToken string) (*OIDCClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}

	var extra struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	return &OIDCClaims{
		Issuer:  idToken.Issuer,
		Subject: idToken.Subject,
		Email:   extra.Email,
		Name:    extra.Name,
	}, nil
}
