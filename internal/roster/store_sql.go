package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darasahub/darasa/internal/academics"
)

// SQLStore works against the schema ensured by internal/db on either
// driver; queries stick to $n placeholders, which both pgx and the
// modernc sqlite driver accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) LoadSnapshot(ctx context.Context, f CohortFilter) (*academics.Snapshot, error) {
	students, err := s.snapshotStudents(ctx, f)
	if err != nil {
		return nil, err
	}
	subjects, err := s.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	scales, err := s.ListScales(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := academics.NewRegistry(scales...)
	if err != nil {
		return nil, err
	}
	marks, err := s.snapshotMarks(ctx, f)
	if err != nil {
		return nil, err
	}
	return &academics.Snapshot{
		Term:       f.Term,
		Assessment: f.Assessment,
		System:     f.System,
		SubjectMax: f.SubjectMax,
		Students:   students,
		Subjects:   subjects,
		Scales:     reg,
		Marks:      marks,
	}, nil
}

func (s *SQLStore) snapshotStudents(ctx context.Context, f CohortFilter) ([]academics.Student, error) {
	if f.StudentID != "" {
		row := s.db.QueryRowContext(ctx,
			`SELECT id, admission_no, name, grade, stream FROM students WHERE id=$1`, f.StudentID)
		var st academics.Student
		if err := row.Scan(&st.ID, &st.AdmissionNo, &st.Name, &st.Grade, &st.Stream); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, f.StudentID)
			}
			return nil, err
		}
		return []academics.Student{st}, nil
	}
	return s.ListStudents(ctx, f.Grade, f.Stream)
}

func (s *SQLStore) snapshotMarks(ctx context.Context, f CohortFilter) (map[string]map[string]academics.RawMark, error) {
	q := `SELECT m.student_id, m.target_id, m.term, m.assessment, m.raw_score, m.max_raw_score
	      FROM raw_marks m JOIN students st ON st.id = m.student_id
	      WHERE m.term=$1 AND m.assessment=$2`
	args := []any{f.Term, f.Assessment}
	switch {
	case f.StudentID != "":
		q += ` AND m.student_id=$3`
		args = append(args, f.StudentID)
	case f.Stream != "":
		q += ` AND st.grade=$3 AND st.stream=$4`
		args = append(args, f.Grade, f.Stream)
	default:
		q += ` AND st.grade=$3`
		args = append(args, f.Grade)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]map[string]academics.RawMark{}
	for rows.Next() {
		var m academics.RawMark
		if err := rows.Scan(&m.StudentID, &m.TargetID, &m.Term, &m.Assessment, &m.RawScore, &m.MaxRaw); err != nil {
			return nil, err
		}
		if out[m.StudentID] == nil {
			out[m.StudentID] = map[string]academics.RawMark{}
		}
		out[m.StudentID][m.TargetID] = m
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertMarks(ctx context.Context, entries []MarkEntry) (int, error) {
	for i, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return 0, fmt.Errorf("entry %d (%s/%s): %w", i, e.StudentID, e.TargetID, err)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO raw_marks (id, student_id, target_id, term, assessment, raw_score, max_raw_score, entered_by, entered_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 ON CONFLICT (student_id, target_id, term, assessment)
			 DO UPDATE SET raw_score=EXCLUDED.raw_score, max_raw_score=EXCLUDED.max_raw_score,
			               entered_by=EXCLUDED.entered_by, entered_at=EXCLUDED.entered_at`,
			uuid.NewString(), e.StudentID, e.TargetID, e.Term, e.Assessment, e.RawScore, e.MaxRaw, e.EnteredBy, now)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *SQLStore) ListSubjects(ctx context.Context) ([]academics.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, level, is_composite, max_raw FROM subjects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []academics.Subject
	for rows.Next() {
		var subj academics.Subject
		if err := rows.Scan(&subj.ID, &subj.Name, &subj.Level, &subj.IsComposite, &subj.MaxRaw); err != nil {
			return nil, err
		}
		subjects = append(subjects, subj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_id, name, weight, max_raw FROM components ORDER BY subject_id, position`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()

	bySubject := map[string][]academics.Component{}
	for crows.Next() {
		var c academics.Component
		if err := crows.Scan(&c.ID, &c.SubjectID, &c.Name, &c.Weight, &c.MaxRaw); err != nil {
			return nil, err
		}
		bySubject[c.SubjectID] = append(bySubject[c.SubjectID], c)
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}
	for i := range subjects {
		subjects[i].Components = bySubject[subjects[i].ID]
	}
	return subjects, nil
}

func (s *SQLStore) PutSubject(ctx context.Context, subj academics.Subject) error {
	if subj.ID == "" {
		subj.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO subjects (id, name, level, is_composite, max_raw) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, level=EXCLUDED.level,
		   is_composite=EXCLUDED.is_composite, max_raw=EXCLUDED.max_raw`,
		subj.ID, subj.Name, subj.Level, subj.IsComposite, subj.MaxRaw)
	if err != nil {
		return err
	}
	// components are replaced wholesale; marks reference them by id so ids
	// should be stable across edits when the caller supplies them
	if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE subject_id=$1`, subj.ID); err != nil {
		return err
	}
	for i, c := range subj.Components {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO components (id, subject_id, name, weight, max_raw, position) VALUES ($1,$2,$3,$4,$5,$6)`,
			c.ID, subj.ID, c.Name, c.Weight, c.MaxRaw, i)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListScales(ctx context.Context) ([]academics.Scale, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT system, bands_json FROM grade_scales ORDER BY system`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scales []academics.Scale
	for rows.Next() {
		var system, bands string
		if err := rows.Scan(&system, &bands); err != nil {
			return nil, err
		}
		sc := academics.Scale{System: system}
		if err := json.Unmarshal([]byte(bands), &sc.Bands); err != nil {
			return nil, fmt.Errorf("scale %s: %w", system, err)
		}
		scales = append(scales, sc)
	}
	return scales, rows.Err()
}

func (s *SQLStore) PutScale(ctx context.Context, sc academics.Scale) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	bands, err := json.Marshal(sc.Bands)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO grade_scales (system, bands_json) VALUES ($1,$2)
		 ON CONFLICT (system) DO UPDATE SET bands_json=EXCLUDED.bands_json`,
		sc.System, string(bands))
	return err
}

func (s *SQLStore) ListStudents(ctx context.Context, grade, stream string) ([]academics.Student, error) {
	q := `SELECT id, admission_no, name, grade, stream FROM students`
	var args []any
	switch {
	case grade != "" && stream != "":
		q += ` WHERE grade=$1 AND stream=$2`
		args = append(args, grade, stream)
	case grade != "":
		q += ` WHERE grade=$1`
		args = append(args, grade)
	}
	q += ` ORDER BY name, admission_no`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []academics.Student
	for rows.Next() {
		var st academics.Student
		if err := rows.Scan(&st.ID, &st.AdmissionNo, &st.Name, &st.Grade, &st.Stream); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *SQLStore) UpsertStudents(ctx context.Context, students []academics.Student) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, st := range students {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO students (id, admission_no, name, grade, stream) VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (id) DO UPDATE SET admission_no=EXCLUDED.admission_no, name=EXCLUDED.name,
			   grade=EXCLUDED.grade, stream=EXCLUDED.stream`,
			st.ID, st.AdmissionNo, st.Name, st.Grade, st.Stream)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(students), nil
}
