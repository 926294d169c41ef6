// Package auth authenticates callers from bearer credentials.
//
// An Authorizer extracts the token from the Authorization header and hands it
// to a Verifier (the identity provider). Two verifiers exist: OIDCVerifier
// checks RS256 tokens against a remote JWKS, HS256Verifier checks tokens signed
// with a shared secret and is meant for development and tests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies an authentication failure.
type ErrorKind string

const (
	// ErrMissing means no credential was presented.
	ErrMissing ErrorKind = "missing"
	// ErrInvalid means the credential was presented but failed verification.
	ErrInvalid ErrorKind = "invalid"
	// ErrUnavailable means the identity provider could not be reached in time.
	ErrUnavailable ErrorKind = "unavailable"
)

// AuthError is returned by Authorize.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth " + string(e.Kind)
	}
	return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// HTTPStatus returns 503 for an unavailable identity provider and 401 otherwise.
func (e *AuthError) HTTPStatus() int {
	if e.Kind == ErrUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnauthorized
}

// Authorizer turns an Authorization header into a Principal.
type Authorizer struct {
	verifier Verifier
	timeout  time.Duration
}

// NewAuthorizer returns an Authorizer that bounds each verification by timeout.
func NewAuthorizer(v Verifier, timeout time.Duration) *Authorizer {
	return &Authorizer{verifier: v, timeout: timeout}
}

// Authorize verifies the bearer credential in header and returns the caller.
// It never touches the request body.
func (a *Authorizer) Authorize(ctx context.Context, header string) (*Principal, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	claims, err := a.verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrVerifierUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &AuthError{Kind: ErrUnavailable, Err: err}
		}
		return nil, &AuthError{Kind: ErrInvalid, Err: err}
	}
	if claims.Subject == "" {
		return nil, &AuthError{Kind: ErrInvalid, Err: errors.New("token has no subject")}
	}

	return &Principal{Subject: claims.Subject, Email: claims.Email, Claims: claims.Raw}, nil
}

type verifyResult struct {
	claims *Claims
	err    error
}

// verify runs the verifier and gives up when ctx is done, even if the
// verifier itself never looks at ctx. A late result is discarded.
func (a *Authorizer) verify(ctx context.Context, token string) (*Claims, error) {
	done := make(chan verifyResult, 1)
	go func() {
		claims, err := a.verifier.Verify(ctx, token)
		done <- verifyResult{claims: claims, err: err}
	}()

	select {
	case res := <-done:
		return res.claims, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("verification abandoned: %w", ctx.Err())
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", &AuthError{Kind: ErrMissing, Err: errors.New("authorization header required")}
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", &AuthError{Kind: ErrInvalid, Err: errors.New("authorization scheme must be Bearer")}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &AuthError{Kind: ErrMissing, Err: errors.New("bearer token is empty")}
	}
	return token, nil
}
