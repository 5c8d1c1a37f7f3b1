package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/audit"
	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/roster"
)

// GET /scales
func ListScalesHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scales, err := store.ListScales(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if scales == nil {
			scales = []academics.Scale{}
		}
		_ = json.NewEncoder(w).Encode(scales)
	}
}

// PUT /scales/{system}
func PutScaleHandler(store roster.Store, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		system := strings.TrimSpace(chi.URLParam(r, "system"))
		if system == "" {
			http.Error(w, "system required", 400)
			return
		}
		var sc academics.Scale
		if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
			http.Error(w, "bad json: "+err.Error(), 400)
			return
		}
		sc.System = system
		if err := store.PutScale(r.Context(), sc); err != nil {
			if errors.Is(err, academics.ErrInvalidScale) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		if rec != nil {
			_ = rec.Append(r.Context(), audit.TypeScaleChanged, authmw.SubjectFromContext(r.Context()), sc)
		}
		_ = json.NewEncoder(w).Encode(sc)
	}
}
