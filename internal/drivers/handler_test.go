package drivers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"driver-review-service/pkg/jwt"
)

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	if err := jwt.Init("test-secret", time.Hour); err != nil {
		t.Fatal(err)
	}
	svc, store, _ := newTestService(t)
	owner := store.AddProfile("a@example.com", nil)
	token, err := jwt.Generate(owner.ID, owner.Email)
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Use(jwt.OptionalAuth)
	r.Mount("/drivers", NewHandler(svc).Routes())
	return r, token
}

func TestHandlerRegisterAndSearch(t *testing.T) {
	router, token := newTestRouter(t)

	body := `{"vehicle_number":"ka01ab1234","platform":"uber"}`
	tests := []struct {
		name  string
		token string
		body  string
		want  int
	}{
		{"anonymous", "", body, http.StatusUnauthorized},
		{"created", token, body, http.StatusCreated},
		{"duplicate", token, body, http.StatusConflict},
		{"invalid platform", token, `{"vehicle_number":"KA01","platform":"lyft"}`, http.StatusBadRequest},
		{"malformed", token, `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/drivers/", strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	t.Run("duplicate message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/drivers/", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var resp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Error != "Driver already exists" || resp.Message != "This vehicle number already exists for the selected platform." {
			t.Errorf("body = %+v", resp)
		}
	})

	t.Run("search hit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drivers/search?vehicle_number=KA01AB1234", nil))
		var resp SearchResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusOK || resp.Count != 1 || resp.Message != "" {
			t.Errorf("status %d, resp %+v", rec.Code, resp)
		}
	})

	t.Run("search miss", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drivers/search?vehicle_number=XX99", nil))
		var resp SearchResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if rec.Code != http.StatusOK || resp.Count != 0 || resp.Message != noResultsMessage || resp.Drivers == nil {
			t.Errorf("status %d, resp %+v", rec.Code, resp)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drivers/does-not-exist", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
