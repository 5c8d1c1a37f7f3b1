package http

import (
	"encoding/json"
	"net/http"

	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/audit"
	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/roster"
)

// GET /subjects
func ListSubjectsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := store.ListSubjects(r.Context())
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if subjects == nil {
			subjects = []academics.Subject{}
		}
		_ = json.NewEncoder(w).Encode(subjects)
	}
}

// POST /subjects
// Composite definitions are stored as given; the weight invariant is
// enforced when the subject is resolved for a run, so an in-progress
// definition can be saved piecemeal. The response carries a resolution
// preview so the office sees a broken definition immediately.
func PutSubjectHandler(store roster.Store, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var subj academics.Subject
		if err := json.NewDecoder(r.Body).Decode(&subj); err != nil {
			http.Error(w, "bad json: "+err.Error(), 400)
			return
		}
		if subj.Name == "" {
			http.Error(w, "subject name required", 400)
			return
		}
		if err := store.PutSubject(r.Context(), subj); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if rec != nil {
			_ = rec.Append(r.Context(), audit.TypeSubjectSaved, authmw.SubjectFromContext(r.Context()), subj)
		}
		resp := map[string]any{"subject": subj}
		if _, err := academics.Resolve(subj); err != nil {
			resp["warning"] = err.Error()
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
