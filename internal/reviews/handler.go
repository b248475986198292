package reviews

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driver-review-service/internal/apperr"
	"driver-review-service/pkg/jwt"
)

// Handler exposes review HTTP endpoints.
type Handler struct{ svc *Service }

// NewHandler wires a handler to the review service.
func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router for the /reviews mount point.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)
	r.Post("/quick", h.QuickReview)
	return r
}

// Submit handles POST /drivers/{id}/reviews. Callers wrap it with jwt.RequireAuth.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Invalid("body", "Request body must be valid JSON."))
		return
	}
	req.DriverID = chi.URLParam(r, "id")
	rv, err := h.svc.Submit(r.Context(), jwt.Identity(r.Context()), req)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handler) QuickReview(w http.ResponseWriter, r *http.Request) {
	var req QuickReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Invalid("body", "Request body must be valid JSON."))
		return
	}
	res, err := h.svc.QuickReview(r.Context(), jwt.Identity(r.Context()), req)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
