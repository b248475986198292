package profiles

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driver-review-service/internal/apperr"
	"driver-review-service/pkg/jwt"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router for the /profiles mount point.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireAuth)
		r.Get("/me", h.GetMe) // must come before /{id}
		r.Patch("/me", h.UpdateMe)
		r.Patch("/{id}", h.Update)
	})

	r.Get("/{id}", h.Get)
	return r
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, jwt.GetClaims(r.Context()).UserID)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, profileID string) {
	p, err := h.svc.Get(r.Context(), profileID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, jwt.GetClaims(r.Context()).UserID)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, profileID string) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Invalid("body", "Request body must be valid JSON."))
		return
	}
	p, err := h.svc.UpdateUsername(r.Context(), jwt.Identity(r.Context()), profileID, req.Username)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
