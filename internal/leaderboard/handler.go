package leaderboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"driver-review-service/internal/apperr"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router for the /leaderboard mount point. Stats is
// mounted separately at /stats.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/contributors", h.Contributors)
	r.Get("/drivers", h.Drivers)
	r.Get("/export.xlsx", h.Export)
	return r
}

func (h *Handler) Contributors(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	out, err := h.svc.TopContributors(r.Context(), limit)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributors": out})
}

func (h *Handler) Drivers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	out, err := h.svc.TopRatedDrivers(r.Context(), limit)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": out})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	// buffer so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), &buf, limit); err != nil {
		apperr.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	w.Write(buf.Bytes())
}

func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Invalid("limit", "limit must be a positive number.")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
