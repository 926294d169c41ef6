package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrVerifierUnavailable marks a verification that failed because the identity
// provider could not be reached, as opposed to a bad credential.
var ErrVerifierUnavailable = errors.New("identity provider unavailable")

// Claims holds what a Verifier extracted from a valid token.
type Claims struct {
	Subject string
	Email   string
	Raw     map[string]any
}

// Verifier checks a raw bearer token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// HS256Verifier validates JWTs signed with a shared HS256 secret.
type HS256Verifier struct {
	secret   []byte
	audience string
	issuer   string
}

// NewHS256Verifier creates a verifier for local/dev HS256 tokens.
// Audience and issuer are checked when non-empty.
func NewHS256Verifier(secret, audience, issuer string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: hs256 secret is required")
	}
	return &HS256Verifier{secret: []byte(secret), audience: audience, issuer: issuer}, nil
}

// Verify parses and validates token. Expiry is required.
func (v *HS256Verifier) Verify(_ context.Context, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	tok, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return v.secret, nil }, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	return claimsFromMap(raw), nil
}

func claimsFromMap(raw map[string]any) *Claims {
	c := &Claims{Raw: raw}
	if sub, ok := raw["sub"].(string); ok {
		c.Subject = sub
	}
	if email, ok := raw["email"].(string); ok {
		c.Email = email
	}
	return c
}
