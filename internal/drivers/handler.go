package drivers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/models"
	"driver-review-service/pkg/jwt"
)

// Handler exposes driver HTTP endpoints.
type Handler struct{ svc *Service }

// NewHandler wires a handler to the driver service.
func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router with all driver routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Public
	r.Get("/search", h.Search) // must come before /{id}
	r.Get("/{id}", h.GetByID)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireAuth)
		r.Post("/", h.Register)
	})

	return r
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.Invalid("body", "Request body must be valid JSON."))
		return
	}
	d, err := h.svc.Register(r.Context(), jwt.Identity(r.Context()), req)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := SearchQuery{
		VehicleNumber: r.URL.Query().Get("vehicle_number"),
		Platform:      models.Platform(r.URL.Query().Get("platform")),
	}
	found, err := h.svc.Search(r.Context(), q)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	resp := SearchResponse{Drivers: found, Count: len(found)}
	if len(found) == 0 {
		resp.Message = noResultsMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
