package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier 校验 OIDC ID Token（Firebase / Google 等）
type OIDCVerifier struct {
	name     string
	verifier *oidc.IDTokenVerifier
}

// NewOIDC 通过 discovery 拉取 JWKS
func NewOIDC(ctx context.Context, name, issuer, clientID string) (*OIDCVerifier, error) {
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", issuer, err)
	}
	return &OIDCVerifier{name: name, verifier: p.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func NewOIDCWithKeySet(name, issuer, clientID string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{name: name, verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	tok, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if claims.Email == "" || (claims.EmailVerified != nil && !*claims.EmailVerified) {
		return nil, fmt.Errorf("%w: no verified email", ErrInvalidCredential)
	}
	return &Identity{
		Provider: v.name,
		Subject:  tok.Subject,
		Email:    strings.ToLower(claims.Email),
		Name:     claims.Name,
	}, nil
}
