package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/events"
	"driver-review-service/internal/models"
	"driver-review-service/internal/storage/memory"
	"driver-review-service/pkg/jwt"
	"driver-review-service/pkg/logger"
	"driver-review-service/pkg/validation"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.New()
	return NewService(store, validation.New(), events.Nop{}, logger.NewNop()), store
}

func TestUpdateUsername(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	owner := store.AddProfile("asha@example.com", nil)
	other := store.AddProfile("ravi@example.com", nil)

	tests := []struct {
		name     string
		id       *models.Identity
		target   string
		username string
		wantErr  func(error) bool
	}{
		{"anonymous", nil, owner.ID, "asha", func(err error) bool { return errors.Is(err, apperr.ErrUnauthenticated) }},
		{"not owner", &models.Identity{UserID: other.ID}, owner.ID, "hijack", func(err error) bool { return errors.Is(err, apperr.ErrForbidden) }},
		{"blank", &models.Identity{UserID: owner.ID}, owner.ID, "   ", apperr.IsValidation},
		{"too long", &models.Identity{UserID: owner.ID}, owner.ID, strings.Repeat("x", 51), apperr.IsValidation},
		{"owner", &models.Identity{UserID: owner.ID}, owner.ID, "  asha_k ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.UpdateUsername(ctx, tt.id, tt.target, tt.username)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.Username == nil || *p.Username != "asha_k" {
				t.Errorf("username = %v", p.Username)
			}
		})
	}

	got, err := svc.Get(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username == nil || *got.Username != "asha_k" {
		t.Errorf("persisted username = %v", got.Username)
	}
	if p, _ := svc.Get(ctx, other.ID); p.Username != nil {
		t.Errorf("other profile changed: %v", *p.Username)
	}
}

func TestUsernameNotUnique(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	a := store.AddProfile("a@example.com", nil)
	b := store.AddProfile("b@example.com", nil)

	for _, p := range []*models.Profile{a, b} {
		if _, err := svc.UpdateUsername(ctx, &models.Identity{UserID: p.ID}, p.ID, "same"); err != nil {
			t.Fatalf("update %s: %v", p.Email, err)
		}
	}
}

func TestGetListsContributions(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	owner := store.AddProfile("a@example.com", nil)
	by := owner.ID
	if _, err := store.Driver().Create(ctx, models.NewDriver{VehicleNumber: "KA01", Platform: models.PlatformOla, ContributedBy: &by}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Drivers) != 1 || got.Drivers[0].VehicleNumber != "KA01" {
		t.Errorf("drivers = %+v", got.Drivers)
	}
	if got.ContributionScore == nil || *got.ContributionScore != 1 {
		t.Errorf("contribution_score = %v", got.ContributionScore)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing profile: %v", err)
	}
}

func TestHandlerOwnership(t *testing.T) {
	if err := jwt.Init("test-secret", time.Hour); err != nil {
		t.Fatal(err)
	}
	svc, store := newTestService()
	owner := store.AddProfile("a@example.com", nil)
	other := store.AddProfile("b@example.com", nil)
	token, _ := jwt.Generate(owner.ID, owner.Email)

	r := chi.NewRouter()
	r.Use(jwt.OptionalAuth)
	r.Mount("/profiles", NewHandler(svc).Routes())

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"patch other", http.MethodPatch, "/profiles/" + other.ID, token, http.StatusForbidden},
		{"patch own", http.MethodPatch, "/profiles/" + owner.ID, token, http.StatusOK},
		{"patch me", http.MethodPatch, "/profiles/me", token, http.StatusOK},
		{"patch anonymous", http.MethodPatch, "/profiles/" + owner.ID, "", http.StatusUnauthorized},
		{"get public", http.MethodGet, "/profiles/" + other.ID, "", http.StatusOK},
		{"get me", http.MethodGet, "/profiles/me", token, http.StatusOK},
		{"get me anonymous", http.MethodGet, "/profiles/me", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"username":"asha"}`))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
