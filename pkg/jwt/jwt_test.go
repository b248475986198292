package jwt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubRevoker map[string]bool

func (s stubRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s[jti], nil
}

func setup(t *testing.T) {
	t.Helper()
	if err := Init("test-secret", time.Hour); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { SetRevoker(nil) })
}

func TestGenerateValidate(t *testing.T) {
	setup(t)

	raw, err := Generate("p-1", "asha@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "p-1" || claims.Email != "asha@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("missing jti")
	}
	if r := claims.Remaining(); r <= 0 || r > time.Hour {
		t.Errorf("Remaining() = %v", r)
	}

	if _, err := Validate(raw + "x"); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestInitRequiresSecret(t *testing.T) {
	if err := Init("", 0); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestMiddleware(t *testing.T) {
	setup(t)

	good, _ := Generate("p-1", "a@example.com")
	revokedTok, _ := Generate("p-2", "b@example.com")
	rc, _ := Validate(revokedTok)
	SetRevoker(stubRevoker{rc.ID: true})

	handler := OptionalAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := Identity(r.Context()); id == nil || id.UserID != "p-1" {
			t.Errorf("identity = %+v", id)
		}
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"revoked", "Bearer " + revokedTok, http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
