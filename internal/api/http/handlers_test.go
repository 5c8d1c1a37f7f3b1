package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/darasahub/darasa/internal/academics"
	api "github.com/darasahub/darasa/internal/api/http"
	"github.com/darasahub/darasa/internal/roster"
)

// newTestRouter seeds a MemStore with a small grade-4 cohort and mounts
// the handlers without auth; RBAC is covered in the rbac package.
func newTestRouter(t *testing.T) (*chi.Mux, *roster.MemStore) {
	t.Helper()
	ctx := context.Background()
	store := roster.NewMemStore()

	if err := store.PutScale(ctx, academics.CBCScale()); err != nil {
		t.Fatalf("put scale: %v", err)
	}
	eng := academics.Subject{
		ID: "eng", Name: "English", IsComposite: true,
		Components: []academics.Component{
			{ID: "gram", Name: "Grammar", Weight: 0.6, MaxRaw: 60},
			{ID: "comp", Name: "Composition", Weight: 0.4, MaxRaw: 40},
		},
	}
	mat := academics.Subject{ID: "mat", Name: "Mathematics", MaxRaw: 100}
	for _, s := range []academics.Subject{eng, mat} {
		if err := store.PutSubject(ctx, s); err != nil {
			t.Fatalf("put subject: %v", err)
		}
	}
	students := []academics.Student{
		{ID: "s1", AdmissionNo: "1001", Name: "Achieng", Grade: "4", Stream: "East"},
		{ID: "s2", AdmissionNo: "1002", Name: "Baraka", Grade: "4", Stream: "East"},
	}
	if _, err := store.UpsertStudents(ctx, students); err != nil {
		t.Fatalf("upsert students: %v", err)
	}
	marks := []roster.MarkEntry{
		entry("s1", "gram", 48, 60),
		entry("s1", "comp", 30, 40),
		entry("s1", "mat", 64, 100),
		entry("s2", "mat", 90, 100),
	}
	if _, err := store.UpsertMarks(ctx, marks); err != nil {
		t.Fatalf("upsert marks: %v", err)
	}

	d := api.Defaults{System: academics.SystemCBC, SubjectMax: academics.DefaultSubjectMax}
	r := chi.NewRouter()
	r.Post("/marks/bulk", api.BulkUpsertMarksHandler(store, nil))
	r.Put("/scales/{system}", api.PutScaleHandler(store, nil))
	r.Get("/results/students/{studentID}", api.StudentResultHandler(store, d))
	r.Get("/results/classes/{grade}/{stream}", api.ClassResultsHandler(store, d))
	r.Get("/results/classes/{grade}/{stream}/summary", api.ClassSummaryHandler(store, d))
	return r, store
}

func entry(student, target string, raw, max float64) roster.MarkEntry {
	return roster.MarkEntry{RawMark: academics.RawMark{
		StudentID: student, TargetID: target,
		Term: "t1-2026", Assessment: "endterm",
		RawScore: raw, MaxRaw: max,
	}}
}

func TestClassResultsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/results/classes/4/East?term=t1-2026&assessment=endterm", nil))
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var results []academics.StudentResult
	if err := json.NewDecoder(w.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	// Achieng: eng 0.6*80 + 0.4*75 = 78, math 64 -> total 142, avg 71 (M.E).
	// Baraka: math only -> total 90, avg 90 (E.E). Total ranks first.
	if results[0].StudentName != "Achieng" || results[0].Rank != 1 {
		t.Fatalf("expected Achieng rank 1, got %q rank %d", results[0].StudentName, results[0].Rank)
	}
	if results[0].TotalScore != 142 || results[0].Average != 71 || results[0].Grade != "M.E" {
		t.Fatalf("Achieng aggregates off: total=%v avg=%v grade=%q",
			results[0].TotalScore, results[0].Average, results[0].Grade)
	}
	if results[1].StudentName != "Baraka" || results[1].Rank != 2 {
		t.Fatalf("expected Baraka rank 2, got %q rank %d", results[1].StudentName, results[1].Rank)
	}
	if !results[1].Subjects["eng"].Missing {
		t.Error("Baraka's English should be marked missing")
	}
}

func TestStudentResultEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/results/students/s1?term=t1-2026&assessment=endterm", nil))
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var res academics.StudentResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Subjects["eng"].Percentage != 78 {
		t.Errorf("eng = %v, want 78", res.Subjects["eng"].Percentage)
	}

	// Unknown student
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/results/students/nobody?term=t1-2026&assessment=endterm", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown student: status %d, want 404", w.Code)
	}

	// Missing term/assessment
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/results/students/s1", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing term: status %d, want 400", w.Code)
	}
}

func TestBulkMarksJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	body, _ := json.Marshal([]roster.MarkEntry{entry("s2", "gram", 30, 60)})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/marks/bulk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}

	// Only grammar present: its weight renormalizes to 1, so eng = 50%.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/results/students/s2?term=t1-2026&assessment=endterm", nil))
	var res academics.StudentResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sc := res.Subjects["eng"]; sc.Missing || sc.Percentage != 50 {
		t.Errorf("eng = %+v, want 50%% present", sc)
	}
}

func TestBulkMarksCSV(t *testing.T) {
	r, _ := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "marks.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(
		"student_id,target_id,term,assessment,raw_score,max_raw_score\n" +
			"s2,gram,t1-2026,endterm,45,60\n" +
			"s2,comp,t1-2026,endterm,20,40\n"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/marks/bulk", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]int
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["saved"] != 2 {
		t.Errorf("saved = %d, want 2", resp["saved"])
	}
}

func TestBulkMarksRejectsScaleViolation(t *testing.T) {
	r, _ := newTestRouter(t)

	body, _ := json.Marshal([]roster.MarkEntry{entry("s2", "mat", 120, 100)})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/marks/bulk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", w.Code)
	}
}

func TestPutScaleValidation(t *testing.T) {
	r, store := newTestRouter(t)

	// No band reaching down to zero: rejected.
	bad := `{"bands":[{"min":50,"label":"Pass","points":2}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/scales/passfail", strings.NewReader(bad))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid scale: status %d, want 422", w.Code)
	}

	good := `{"bands":[{"min":50,"label":"Pass","points":2},{"min":0,"label":"Fail","points":1}]}`
	w = httptest.NewRecorder()
	req = httptest.NewRequest("PUT", "/scales/passfail", strings.NewReader(good))
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("valid scale: status %d: %s", w.Code, w.Body.String())
	}
	scales, err := store.ListScales(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, sc := range scales {
		if sc.System == "passfail" {
			found = true
		}
	}
	if !found {
		t.Error("passfail scale not persisted")
	}
}

func TestClassSummaryEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/results/classes/4/East/summary?term=t1-2026&assessment=endterm", nil))
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var sum academics.CohortSummary
	if err := json.NewDecoder(w.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Students != 2 {
		t.Errorf("students = %d, want 2", sum.Students)
	}
	// Averages 71 and 90 -> mean 80.5 (E.E band)
	if sum.MeanAverage != 80.5 || sum.MeanGrade != "E.E" {
		t.Errorf("mean = %v grade %q, want 80.5 E.E", sum.MeanAverage, sum.MeanGrade)
	}
	if sum.BandCounts["M.E"] != 1 || sum.BandCounts["E.E"] != 1 {
		t.Errorf("band counts off: %v", sum.BandCounts)
	}
}
