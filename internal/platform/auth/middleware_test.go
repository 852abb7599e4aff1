package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

type stubTokenVerifier struct {
	token    *firebaseauth.Token
	err      error
	received string
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	s.received = idToken
	if s.err != nil {
		return nil, s.err
	}
	return s.token, nil
}

func serve(t *testing.T, authn *Authenticator, header string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/store", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	authn.RequireRole(RoleAdmin)(next).ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	code, _ := body["error"].(string)
	return code
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{
		UID:    "uid-123",
		Claims: map[string]any{"role": []any{"Admin", "admin"}, "email": "dueña@savia.test"},
	}}

	called := false
	rec := serve(t, NewAuthenticator(verifier), "Bearer token-abc", func(w http.ResponseWriter, r *http.Request) {
		called = true
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("expected identity in context")
		}
		if identity.UID != "uid-123" || identity.Email != "dueña@savia.test" {
			t.Fatalf("unexpected identity %+v", identity)
		}
		if len(identity.Roles) != 1 || !identity.HasRole(RoleAdmin) {
			t.Fatalf("expected deduplicated admin role, got %v", identity.Roles)
		}
		if identity.Token() == nil {
			t.Fatalf("expected token to be retained")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if !called || rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run, status %d", rec.Code)
	}
	if verifier.received != "token-abc" {
		t.Fatalf("unexpected token forwarded: %s", verifier.received)
	}
}

func TestRequireRoleAcceptsBooleanClaim(t *testing.T) {
	verifier := &stubTokenVerifier{token: &firebaseauth.Token{UID: "uid", Claims: map[string]any{"admin": true}}}
	rec := serve(t, NewAuthenticator(verifier, WithRoleClaim("admin")), "bearer t", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRoleRejections(t *testing.T) {
	never := func(http.ResponseWriter, *http.Request) { t.Fatalf("handler must not run") }

	rec := serve(t, NewAuthenticator(&stubTokenVerifier{}), "", never)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "unauthenticated" {
		t.Fatalf("expected unauthenticated, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, NewAuthenticator(&stubTokenVerifier{err: ErrTokenExpired}), "Bearer x", never)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "token_expired" {
		t.Fatalf("expected token_expired, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, NewAuthenticator(&stubTokenVerifier{err: ErrTokenInvalid}), "Bearer x", never)
	if errorCode(t, rec) != "invalid_token" {
		t.Fatalf("expected invalid_token, got %s", rec.Body.String())
	}

	shopper := &stubTokenVerifier{token: &firebaseauth.Token{UID: "u", Claims: map[string]any{"role": "customer"}}}
	rec = serve(t, NewAuthenticator(shopper), "Bearer x", never)
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "insufficient_role" {
		t.Fatalf("expected 403 insufficient_role, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, NewAuthenticator(nil), "Bearer x", never)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without verifier, got %d", rec.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc":  true,
		"bearer  abc": true,
		"Basic abc":   false,
		"Bearer ":     false,
		"":            false,
	}
	for header, want := range cases {
		if _, ok := extractBearerToken(header); ok != want {
			t.Fatalf("header %q: expected %v", header, want)
		}
	}
}
