package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ghuser/itemlocations/pkg/logger"
)

func newTestAuthorizer(t *testing.T) *Authorizer {
	t.Helper()
	v, err := NewHS256Verifier(testSecret, "items-api", "")
	if err != nil {
		t.Fatalf("NewHS256Verifier: %v", err)
	}
	return NewAuthorizer(v, time.Second)
}

func validToken() string {
	return makeToken(testSecret, jwt.MapClaims{
		"sub":   "user-123",
		"aud":   "items-api",
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

func TestRequireBearer_ValidToken(t *testing.T) {
	var captured *Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = PrincipalFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodPost, "/items", nil)
	r.Header.Set("Authorization", "Bearer "+validToken())
	w := httptest.NewRecorder()
	RequireBearer(newTestAuthorizer(t), logger.Discard())(next).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if captured == nil || captured.Subject != "user-123" || captured.Email != "user@example.com" {
		t.Fatalf("unexpected principal in context: %+v", captured)
	}
}

func TestRequireBearer_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bad signature", header: "Bearer " + makeToken("wrong-secret-wrong-secret-wrong!", jwt.MapClaims{"sub": "u", "aud": "items-api", "exp": time.Now().Add(time.Hour).Unix()})},
		{name: "expired", header: "Bearer " + makeToken(testSecret, jwt.MapClaims{"sub": "u", "aud": "items-api", "exp": time.Now().Add(-time.Hour).Unix()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not be called")
			})
			r := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader("{not json"))
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			RequireBearer(newTestAuthorizer(t), logger.Discard())(next).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate: got %q", got)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if !strings.HasPrefix(body["error"], "Authentication failed") {
				t.Errorf("error body: got %q", body["error"])
			}
		})
	}
}

type unavailableVerifier struct{}

func (unavailableVerifier) Verify(context.Context, string) (*Claims, error) {
	return nil, fmt.Errorf("%w: jwks fetch failed", ErrVerifierUnavailable)
}

func TestRequireBearer_ProviderUnavailable(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	})
	r := httptest.NewRequest(http.MethodGet, "/items", nil)
	r.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	RequireBearer(NewAuthorizer(unavailableVerifier{}, time.Second), logger.Discard())(next).ServeHTTP(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
