package reviews

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

func TestHandlers(t *testing.T) {
	if err := jwt.Init("test-secret", time.Hour); err != nil {
		t.Fatal(err)
	}
	svc, store, _ := newTestService(t)
	d := seedDriver(t, store)
	id := identity(store, "a@example.com")
	token, _ := jwt.Generate(id.UserID, id.Email)

	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(jwt.OptionalAuth)
	r.With(jwt.RequireAuth).Post("/drivers/{id}/reviews", h.Submit)
	r.Mount("/reviews", h.Routes())

	tests := []struct {
		name  string
		path  string
		token string
		body  string
		want  int
	}{
		{"submit anonymous", "/drivers/" + d.ID + "/reviews", "", `{"rating":4}`, http.StatusUnauthorized},
		{"submit missing rating", "/drivers/" + d.ID + "/reviews", token, `{}`, http.StatusBadRequest},
		{"submit ok", "/drivers/" + d.ID + "/reviews", token, `{"rating":4,"review_text":"smooth ride"}`, http.StatusCreated},
		{"submit duplicate", "/drivers/" + d.ID + "/reviews", token, `{"rating":5}`, http.StatusConflict},
		{"submit unknown driver", "/drivers/unknown/reviews", token, `{"rating":5}`, http.StatusNotFound},
		{"quick ok", "/reviews/quick", token, `{"vehicle_number":"mh12ab0001","platform":"namma_yatri","rating":5}`, http.StatusCreated},
		{"quick bad platform", "/reviews/quick", token, `{"vehicle_number":"mh12ab0001","platform":"bolt","rating":5}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
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

	t.Run("missing rating message", func(t *testing.T) {
		other := identity(store, "b@example.com")
		tok, _ := jwt.Generate(other.UserID, other.Email)
		req := httptest.NewRequest(http.MethodPost, "/drivers/"+d.ID+"/reviews", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		var body struct {
			Message string `json:"message"`
		}
		json.NewDecoder(rec.Body).Decode(&body)
		if body.Message != "Please select a rating before submitting." {
			t.Errorf("message = %q", body.Message)
		}
	})
}
