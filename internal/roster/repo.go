package roster

import (
	"context"
	"errors"

	"github.com/darasahub/darasa/internal/academics"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrScaleNotFound   = errors.New("grading scale not found")
)

// MarkEntry is a raw mark plus the account that entered it; the audit
// trail needs the author, the engine does not.
type MarkEntry struct {
	academics.RawMark
	EnteredBy string `json:"entered_by,omitempty"`
}

// CohortFilter selects the slice of school data one aggregation run reads.
// Either StudentID is set (single-student snapshot) or Grade is, with
// Stream empty meaning every stream in the grade (the roll-up case).
type CohortFilter struct {
	StudentID  string
	Grade      string
	Stream     string
	Term       string
	Assessment string
	System     string
	SubjectMax float64
}

// Store is everything the HTTP layer needs. LoadSnapshot hands the engine
// an immutable bundle fetched in one pass; the engine itself never touches
// the database.
type Store interface {
	LoadSnapshot(ctx context.Context, f CohortFilter) (*academics.Snapshot, error)

	UpsertMarks(ctx context.Context, entries []MarkEntry) (int, error)

	ListSubjects(ctx context.Context) ([]academics.Subject, error)
	PutSubject(ctx context.Context, s academics.Subject) error

	ListScales(ctx context.Context) ([]academics.Scale, error)
	PutScale(ctx context.Context, s academics.Scale) error

	ListStudents(ctx context.Context, grade, stream string) ([]academics.Student, error)
	UpsertStudents(ctx context.Context, students []academics.Student) (int, error)
}

// ValidateEntry rejects a mark at the boundary so a bad scale can never
// surface later as a corrupted aggregate.
func ValidateEntry(e MarkEntry) error {
	if e.StudentID == "" || e.TargetID == "" {
		return errors.New("mark entry needs student_id and target_id")
	}
	if e.Term == "" || e.Assessment == "" {
		return errors.New("mark entry needs term and assessment")
	}
	if e.MaxRaw <= 0 {
		return academics.ErrInvalidMarkScale
	}
	if e.RawScore < 0 || e.RawScore > e.MaxRaw {
		return academics.ErrInvalidMarkScale
	}
	return nil
}
