package auth

import (
	"context"
	"errors"
)

// contextKey is an unexported type to prevent key collisions in context.
type contextKey string

const principalKey contextKey = "principal"

// ErrPrincipalNotFound is returned when no Principal exists in the request context.
// Handlers should return 401 when this error occurs.
var ErrPrincipalNotFound = errors.New("principal not found in context")

// Principal is the authenticated caller. It is derived per request and never persisted.
type Principal struct {
	Subject string
	Email   string
	Claims  map[string]any
}

// PrincipalFromCtx extracts the authenticated Principal from the request context.
func PrincipalFromCtx(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok || p == nil || p.Subject == "" {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

// WithPrincipal returns a new context with the given Principal attached.
// Used by RequireBearer after the credential has been verified.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
