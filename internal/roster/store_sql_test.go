package roster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/db"
	"github.com/darasahub/darasa/internal/roster"
)

func openStore(t *testing.T) *roster.SQLStore {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:roster_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return roster.NewSQLStore(dbh, "sqlite")
}

func seed(t *testing.T, s *roster.SQLStore) {
	t.Helper()
	ctx := context.Background()

	if err := s.PutScale(ctx, academics.CBCScale()); err != nil {
		t.Fatalf("put scale: %v", err)
	}
	if err := s.PutSubject(ctx, academics.Subject{
		ID: "eng", Name: "English", IsComposite: true,
		Components: []academics.Component{
			{ID: "eng-gram", Name: "Grammar", Weight: 0.6, MaxRaw: 60},
			{ID: "eng-comp", Name: "Composition", Weight: 0.4, MaxRaw: 40},
		},
	}); err != nil {
		t.Fatalf("put subject: %v", err)
	}
	if err := s.PutSubject(ctx, academics.Subject{ID: "math", Name: "Mathematics", MaxRaw: 100}); err != nil {
		t.Fatalf("put subject: %v", err)
	}
	if _, err := s.UpsertStudents(ctx, []academics.Student{
		{ID: "s1", AdmissionNo: "001", Name: "Achieng", Grade: "4", Stream: "East"},
		{ID: "s2", AdmissionNo: "002", Name: "Baraka", Grade: "4", Stream: "East"},
		{ID: "s3", AdmissionNo: "003", Name: "Chebet", Grade: "4", Stream: "West"},
	}); err != nil {
		t.Fatalf("upsert students: %v", err)
	}

	entry := func(st, target string, raw, max float64) roster.MarkEntry {
		return roster.MarkEntry{
			RawMark: academics.RawMark{
				StudentID: st, TargetID: target,
				Term: "t1", Assessment: "endterm",
				RawScore: raw, MaxRaw: max,
			},
			EnteredBy: "tr-juma",
		}
	}
	if _, err := s.UpsertMarks(ctx, []roster.MarkEntry{
		entry("s1", "eng-gram", 48, 60),
		entry("s1", "eng-comp", 30, 40),
		entry("s1", "math", 64, 100),
		entry("s2", "math", 90, 100),
		entry("s3", "math", 70, 100),
	}); err != nil {
		t.Fatalf("upsert marks: %v", err)
	}
}

func TestSQLStore_SnapshotThroughEngine(t *testing.T) {
	s := openStore(t)
	seed(t, s)
	ctx := context.Background()

	snap, err := s.LoadSnapshot(ctx, roster.CohortFilter{
		Grade: "4", Stream: "East", Term: "t1", Assessment: "endterm",
		System: academics.SystemCBC,
	})
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Students) != 2 {
		t.Fatalf("stream East students = %d; want 2", len(snap.Students))
	}

	results, err := academics.AggregateAll(snap)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	ranked := academics.Rank(results)
	// Totals are the primary key: Achieng carries two subjects (78 + 64 =
	// 142) against Baraka's single 90.
	achieng, baraka := ranked[0], ranked[1]
	if achieng.StudentName != "Achieng" || achieng.Rank != 1 {
		t.Fatalf("top of class = (%s, %d); want (Achieng, 1)", achieng.StudentName, achieng.Rank)
	}
	if achieng.TotalScore != 142 {
		t.Fatalf("Achieng total = %v; want 142", achieng.TotalScore)
	}
	if sc := achieng.Subjects["eng"]; sc.Percentage != 78 {
		t.Fatalf("Achieng english = %v; want 78", sc.Percentage)
	}
	if sc := baraka.Subjects["eng"]; !sc.Missing {
		t.Fatalf("Baraka english must be missing, got %+v", sc)
	}
}

func TestSQLStore_GradeWideSnapshotSpansStreams(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	snap, err := s.LoadSnapshot(context.Background(), roster.CohortFilter{
		Grade: "4", Term: "t1", Assessment: "endterm", System: academics.SystemCBC,
	})
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Students) != 3 {
		t.Fatalf("grade 4 students = %d; want 3 across both streams", len(snap.Students))
	}
	if _, ok := snap.Marks["s3"]["math"]; !ok {
		t.Fatalf("West stream marks missing from grade-wide snapshot")
	}
}

func TestSQLStore_SingleStudentSnapshot(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	snap, err := s.LoadSnapshot(context.Background(), roster.CohortFilter{
		StudentID: "s1", Term: "t1", Assessment: "endterm", System: academics.SystemCBC,
	})
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Students) != 1 || snap.Students[0].ID != "s1" {
		t.Fatalf("unexpected students: %+v", snap.Students)
	}

	_, err = s.LoadSnapshot(context.Background(), roster.CohortFilter{
		StudentID: "missing", Term: "t1", Assessment: "endterm",
	})
	if !errors.Is(err, roster.ErrStudentNotFound) {
		t.Fatalf("got %v; want ErrStudentNotFound", err)
	}
}

func TestSQLStore_MarkUpsertOverwrites(t *testing.T) {
	s := openStore(t)
	seed(t, s)
	ctx := context.Background()

	// Amend Baraka's maths mark; same (student, target, term, assessment)
	// must overwrite, not duplicate.
	if _, err := s.UpsertMarks(ctx, []roster.MarkEntry{{
		RawMark: academics.RawMark{
			StudentID: "s2", TargetID: "math",
			Term: "t1", Assessment: "endterm",
			RawScore: 55, MaxRaw: 100,
		},
		EnteredBy: "tr-akinyi",
	}}); err != nil {
		t.Fatalf("amend mark: %v", err)
	}
	snap, err := s.LoadSnapshot(ctx, roster.CohortFilter{
		StudentID: "s2", Term: "t1", Assessment: "endterm", System: academics.SystemCBC,
	})
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	m := snap.Marks["s2"]["math"]
	if m.RawScore != 55 {
		t.Fatalf("amended raw = %v; want 55", m.RawScore)
	}
}

func TestSQLStore_RejectsInvalidMarks(t *testing.T) {
	s := openStore(t)
	seed(t, s)

	bad := []roster.MarkEntry{
		{RawMark: academics.RawMark{StudentID: "s1", TargetID: "math", Term: "t1", Assessment: "endterm", RawScore: 10, MaxRaw: 0}},
		{RawMark: academics.RawMark{StudentID: "s1", TargetID: "math", Term: "t1", Assessment: "endterm", RawScore: 120, MaxRaw: 100}},
	}
	for _, e := range bad {
		if _, err := s.UpsertMarks(context.Background(), []roster.MarkEntry{e}); !errors.Is(err, academics.ErrInvalidMarkScale) {
			t.Fatalf("raw=%v max=%v: got %v; want ErrInvalidMarkScale", e.RawScore, e.MaxRaw, err)
		}
	}
}

func TestSQLStore_ScaleRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if err := s.PutScale(ctx, academics.LetterScale()); err != nil {
		t.Fatalf("put scale: %v", err)
	}
	scales, err := s.ListScales(ctx)
	if err != nil {
		t.Fatalf("list scales: %v", err)
	}
	if len(scales) != 1 || scales[0].System != academics.SystemLetter {
		t.Fatalf("unexpected scales: %+v", scales)
	}
	if len(scales[0].Bands) != 12 {
		t.Fatalf("letter scale bands = %d; want 12", len(scales[0].Bands))
	}

	if err := s.PutScale(ctx, academics.Scale{System: "bad", Bands: []academics.Band{{Min: 50, Label: "P"}}}); !errors.Is(err, academics.ErrInvalidScale) {
		t.Fatalf("got %v; want ErrInvalidScale", err)
	}
}
