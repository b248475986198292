package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/storage/memory"
	"driver-review-service/pkg/jwt"
	"driver-review-service/pkg/logger"
	rredis "driver-review-service/pkg/redis"
	"driver-review-service/pkg/validation"
)

func setup(t *testing.T) (*Service, *rredis.Client) {
	t.Helper()
	if err := jwt.Init("test-secret", time.Hour); err != nil {
		t.Fatal(err)
	}
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cache := rredis.Wrap(rdb, logger.NewNop())
	jwt.SetRevoker(cache)
	t.Cleanup(func() { jwt.SetRevoker(nil) })
	return NewService(memory.New(), validation.New(), cache, logger.NewNop()), cache
}

func TestRegisterLogin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	name := "asha"
	reg, err := svc.Register(ctx, RegisterRequest{Email: "Asha@Example.com", Password: "secret1", Username: &name})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	claims, err := jwt.Validate(reg.Token)
	if err != nil || claims.UserID != reg.Profile.ID {
		t.Fatalf("token claims %+v, err %v", claims, err)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Email: "asha@example.com", Password: "another1"}); !errors.Is(err, apperr.ErrEmailTaken) {
		t.Errorf("duplicate email: %v", err)
	}

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{"ok", LoginRequest{Email: "asha@example.com", Password: "secret1"}, nil},
		{"wrong password", LoginRequest{Email: "asha@example.com", Password: "nope123"}, apperr.ErrInvalidCredentials},
		{"unknown email", LoginRequest{Email: "ravi@example.com", Password: "secret1"}, apperr.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.Profile.ID != reg.Profile.ID {
				t.Errorf("logged into %s, want %s", resp.Profile.ID, reg.Profile.ID)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setup(t)
	tests := []RegisterRequest{
		{Email: "not-an-email", Password: "secret1"},
		{Email: "a@example.com", Password: "123"},
		{Email: "", Password: "secret1"},
	}
	for _, req := range tests {
		if _, err := svc.Register(context.Background(), req); !apperr.IsValidation(err) {
			t.Errorf("Register(%+v) = %v, want validation error", req, err)
		}
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	svc, _ := setup(t)
	reg, err := svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Use(jwt.OptionalAuth)
	r.Mount("/auth", NewHandler(svc).Routes())

	signout := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
		req.Header.Set("Authorization", "Bearer "+reg.Token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := signout(); code != http.StatusOK {
		t.Fatalf("first signout = %d", code)
	}
	if code := signout(); code != http.StatusUnauthorized {
		t.Errorf("revoked token accepted: %d", code)
	}
}

func TestHandlerLogin(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Mount("/auth", NewHandler(svc).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com","password":"secret1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Token == "" {
		t.Errorf("resp %+v err %v", resp, err)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com","password":"wrong12"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", rec.Code)
	}
}
