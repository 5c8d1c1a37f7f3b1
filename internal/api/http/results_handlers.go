package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/roster"
)

// Defaults carries the per-deployment academic configuration handlers
// fall back to when a request does not pick its own grading system or
// total scale.
type Defaults struct {
	System     string
	SubjectMax float64
}

func cohortFilter(r *http.Request, d Defaults) roster.CohortFilter {
	q := r.URL.Query()
	f := roster.CohortFilter{
		Term:       q.Get("term"),
		Assessment: q.Get("assessment"),
		System:     q.Get("system"),
		SubjectMax: d.SubjectMax,
	}
	if f.System == "" {
		f.System = d.System
	}
	if v := q.Get("subject_max"); v != "" {
		if m, err := strconv.ParseFloat(v, 64); err == nil && m > 0 {
			f.SubjectMax = m
		}
	}
	return f
}

func requireTermAssessment(w http.ResponseWriter, f roster.CohortFilter) bool {
	if f.Term == "" || f.Assessment == "" {
		http.Error(w, "term and assessment query params required", http.StatusBadRequest)
		return false
	}
	return true
}

// writeEngineError maps the engine taxonomy onto status codes. Invariant
// violations are the caller's data being wrong, not the server failing.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roster.ErrStudentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, academics.ErrUnknownSystem),
		errors.Is(err, academics.ErrInvalidPercentage),
		errors.Is(err, academics.ErrInvalidCompositeDefinition),
		errors.Is(err, academics.ErrInvalidMarkScale),
		errors.Is(err, academics.ErrInvalidScale):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /results/students/{studentID}?term=&assessment=&system=
func StudentResultHandler(store roster.Store, d Defaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := strings.TrimSpace(chi.URLParam(r, "studentID"))
		if studentID == "" {
			http.Error(w, "studentID required", http.StatusBadRequest)
			return
		}
		f := cohortFilter(r, d)
		if !requireTermAssessment(w, f) {
			return
		}
		f.StudentID = studentID
		snap, err := store.LoadSnapshot(r.Context(), f)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		res, err := academics.Aggregate(snap, snap.Students[0])
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

// GET /results/classes/{grade}/{stream}?term=&assessment=&system=
func ClassResultsHandler(store roster.Store, d Defaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := cohortFilter(r, d)
		f.Grade = chi.URLParam(r, "grade")
		f.Stream = chi.URLParam(r, "stream")
		if !requireTermAssessment(w, f) {
			return
		}
		ranked, _, err := rankCohort(r, store, f)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(ranked)
	}
}

// GET /results/classes/{grade}/{stream}/summary?term=&assessment=&system=
func ClassSummaryHandler(store roster.Store, d Defaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := cohortFilter(r, d)
		f.Grade = chi.URLParam(r, "grade")
		f.Stream = chi.URLParam(r, "stream")
		if !requireTermAssessment(w, f) {
			return
		}
		writeSummary(w, r, store, f)
	}
}

// GET /results/grades/{grade}/summary?term=&assessment=&system=
//
// Grade-level roll-up: one snapshot spanning every stream in the grade,
// so the summary is recomputed from the union of student results rather
// than from per-stream summaries.
func GradeSummaryHandler(store roster.Store, d Defaults) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := cohortFilter(r, d)
		f.Grade = chi.URLParam(r, "grade")
		if !requireTermAssessment(w, f) {
			return
		}
		writeSummary(w, r, store, f)
	}
}

func rankCohort(r *http.Request, store roster.Store, f roster.CohortFilter) ([]academics.StudentResult, *academics.Snapshot, error) {
	snap, err := store.LoadSnapshot(r.Context(), f)
	if err != nil {
		return nil, nil, err
	}
	results, err := academics.AggregateAll(snap)
	if err != nil {
		return nil, nil, err
	}
	return academics.Rank(results), snap, nil
}

func writeSummary(w http.ResponseWriter, r *http.Request, store roster.Store, f roster.CohortFilter) {
	ranked, snap, err := rankCohort(r, store, f)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	summary, err := academics.Summarize(snap, ranked)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(summary)
}
