package roster

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/darasahub/darasa/internal/academics"
)

// MemStore keeps everything in maps behind one RWMutex. Used in tests and
// for demo runs without a database; behavior mirrors SQLStore.
type MemStore struct {
	mu       sync.RWMutex
	students map[string]academics.Student
	subjects map[string]academics.Subject
	scales   map[string]academics.Scale
	marks    map[string]MarkEntry // key: student|target|term|assessment
}

func NewMemStore() *MemStore {
	return &MemStore{
		students: map[string]academics.Student{},
		subjects: map[string]academics.Subject{},
		scales:   map[string]academics.Scale{},
		marks:    map[string]MarkEntry{},
	}
}

func markKey(studentID, targetID, term, assessment string) string {
	return fmt.Sprintf("%s|%s|%s|%s", studentID, targetID, term, assessment)
}

func (m *MemStore) LoadSnapshot(_ context.Context, f CohortFilter) (*academics.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var students []academics.Student
	if f.StudentID != "" {
		st, ok := m.students[f.StudentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, f.StudentID)
		}
		students = []academics.Student{st}
	} else {
		students = m.listStudentsLocked(f.Grade, f.Stream)
	}

	subjects := m.listSubjectsLocked()
	scales := make([]academics.Scale, 0, len(m.scales))
	for _, sc := range m.scales {
		scales = append(scales, sc)
	}
	reg, err := academics.NewRegistry(scales...)
	if err != nil {
		return nil, err
	}

	inCohort := map[string]bool{}
	for _, st := range students {
		inCohort[st.ID] = true
	}
	marks := map[string]map[string]academics.RawMark{}
	for _, e := range m.marks {
		if e.Term != f.Term || e.Assessment != f.Assessment || !inCohort[e.StudentID] {
			continue
		}
		if marks[e.StudentID] == nil {
			marks[e.StudentID] = map[string]academics.RawMark{}
		}
		marks[e.StudentID][e.TargetID] = e.RawMark
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

func (m *MemStore) UpsertMarks(_ context.Context, entries []MarkEntry) (int, error) {
	for i, e := range entries {
		if err := ValidateEntry(e); err != nil {
			return 0, fmt.Errorf("entry %d (%s/%s): %w", i, e.StudentID, e.TargetID, err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.marks[markKey(e.StudentID, e.TargetID, e.Term, e.Assessment)] = e
	}
	return len(entries), nil
}

func (m *MemStore) listSubjectsLocked() []academics.Subject {
	out := make([]academics.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemStore) ListSubjects(_ context.Context) ([]academics.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSubjectsLocked(), nil
}

func (m *MemStore) PutSubject(_ context.Context, s academics.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	for i := range s.Components {
		if s.Components[i].ID == "" {
			s.Components[i].ID = uuid.NewString()
		}
		s.Components[i].SubjectID = s.ID
	}
	m.subjects[s.ID] = s
	return nil
}

func (m *MemStore) ListScales(_ context.Context) ([]academics.Scale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]academics.Scale, 0, len(m.scales))
	for _, sc := range m.scales {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].System < out[j].System })
	return out, nil
}

func (m *MemStore) PutScale(_ context.Context, sc academics.Scale) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scales[sc.System] = sc
	return nil
}

func (m *MemStore) listStudentsLocked(grade, stream string) []academics.Student {
	var out []academics.Student
	for _, st := range m.students {
		if grade != "" && st.Grade != grade {
			continue
		}
		if stream != "" && st.Stream != stream {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].AdmissionNo < out[j].AdmissionNo
	})
	return out
}

func (m *MemStore) ListStudents(_ context.Context, grade, stream string) ([]academics.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listStudentsLocked(grade, stream), nil
}

func (m *MemStore) UpsertStudents(_ context.Context, students []academics.Student) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range students {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		m.students[st.ID] = st
	}
	return len(students), nil
}
