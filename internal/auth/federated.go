package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the profile extracted from a verified federated ID token.
type Identity struct {
	Subject       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// Verifier verifies a federated ID token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// idTokenClaims are the claims we read from a federated ID token.
type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// IDTokenVerifier validates federated ID tokens against an expected issuer
// and audience. Signature verification is delegated to the configured
// jwt.Keyfunc, which typically resolves the provider's published keys.
type IDTokenVerifier struct {
	issuer   string
	audience string
	keyfunc  jwt.Keyfunc
}

// NewIDTokenVerifier creates a verifier for the given issuer and audience.
func NewIDTokenVerifier(issuer, audience string, keyfunc jwt.Keyfunc) *IDTokenVerifier {
	return &IDTokenVerifier{
		issuer:   issuer,
		audience: audience,
		keyfunc:  keyfunc,
	}
}

// Verify parses and validates the ID token and returns the asserted identity.
func (v *IDTokenVerifier) Verify(_ context.Context, idToken string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(idToken, &idTokenClaims{}, v.keyfunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}

	claims, ok := token.Claims.(*idTokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid id token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("id token missing subject")
	}

	return &Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}
