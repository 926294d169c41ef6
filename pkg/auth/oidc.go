package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig configures an OIDCVerifier. When JWKSURL is empty the key set
// location is discovered from IssuerURL.
type OIDCConfig struct {
	IssuerURL  string
	JWKSURL    string
	Audience   string
	HTTPClient *http.Client
}

// OIDCVerifier validates RS256 tokens against the identity provider's JWKS.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier. Discovery (JWKSURL empty) contacts the
// issuer immediately; a JWKS URL is fetched lazily on first use.
func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("auth: oidc issuer url is required")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	if cfg.HTTPClient != nil {
		client = cfg.HTTPClient
	}
	// The key set keeps this context for its background fetches.
	keyCtx := oidc.ClientContext(context.WithoutCancel(ctx), client)

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		provider, err := oidc.NewProvider(keyCtx, cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("oidc provider discovery: %w", err)
		}
		var meta struct {
			JWKSURL string `json:"jwks_uri"`
		}
		if err := provider.Claims(&meta); err != nil {
			return nil, fmt.Errorf("oidc provider metadata: %w", err)
		}
		if meta.JWKSURL == "" {
			return nil, errors.New("oidc provider metadata has no jwks_uri")
		}
		jwksURL = meta.JWKSURL
	}
	return newOIDCVerifier(cfg.IssuerURL, cfg.Audience, oidc.NewRemoteKeySet(keyCtx, jwksURL)), nil
}

func newOIDCVerifier(issuer, audience string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, fetchMarkingKeySet{keys}, &oidc.Config{ClientID: audience}),
	}
}

// Verify checks signature, issuer, audience and expiry. Failures caused by the
// JWKS endpoint for this token (transport error, 5xx, deadline) wrap
// ErrVerifierUnavailable.
func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	fetch := &keyFetch{}
	idToken, err := v.verifier.Verify(context.WithValue(ctx, keyFetchKey{}, fetch), token)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerifierUnavailable, ctxErr)
		}
		if fetch.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrVerifierUnavailable, fetch.err)
		}
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var raw map[string]any
	if err := idToken.Claims(&raw); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	c := claimsFromMap(raw)
	c.Subject = idToken.Subject
	return c, nil
}

type keyFetchKey struct{}

// keyFetch holds the key fetch failure seen by one Verify call.
type keyFetch struct{ err error }

// fetchMarkingKeySet records key fetch failures on the calling context.
// go-oidc flattens the key set error into a string, so the marker is the only
// way to tell an unreachable JWKS from a bad signature.
type fetchMarkingKeySet struct{ keys oidc.KeySet }

func (k fetchMarkingKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.keys.VerifySignature(ctx, jwt)
	// Only a failed key fetch comes back wrapped; signature mismatches are plain.
	if err != nil && errors.Unwrap(err) != nil {
		if fetch, ok := ctx.Value(keyFetchKey{}).(*keyFetch); ok {
			fetch.err = err
		}
	}
	return payload, err
}
