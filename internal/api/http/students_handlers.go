package http

import (
	"encoding/json"
	"net/http"

	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/audit"
	authmw "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/roster"
)

// GET /students?grade=&stream=
func ListStudentsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		students, err := store.ListStudents(r.Context(), q.Get("grade"), q.Get("stream"))
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if students == nil {
			students = []academics.Student{}
		}
		_ = json.NewEncoder(w).Encode(students)
	}
}

// POST /students/bulk
func BulkUpsertStudentsHandler(store roster.Store, rec *audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var students []academics.Student
		if err := json.NewDecoder(r.Body).Decode(&students); err != nil {
			http.Error(w, "expected JSON array", 400)
			return
		}
		for _, st := range students {
			if st.AdmissionNo == "" || st.Name == "" || st.Grade == "" {
				http.Error(w, "each student needs admission_no, name and grade", 400)
				return
			}
		}
		n, err := store.UpsertStudents(r.Context(), students)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if rec != nil {
			_ = rec.Append(r.Context(), audit.TypeRosterChanged, authmw.SubjectFromContext(r.Context()),
				map[string]any{"count": n})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"saved": n})
	}
}
