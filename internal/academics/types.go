package academics

// Value records crossing the engine boundary. These are plain structs on
// purpose: the engine never sees a database row or a framework type.

type Student struct {
	ID          string `json:"id"`
	AdmissionNo string `json:"admission_no,omitempty"`
	Name        string `json:"name"`
	Grade       string `json:"grade"`
	Stream      string `json:"stream"`
}

// Component is a sub-unit of a composite subject (e.g. Composition under
// English). Each component carries its own raw-mark scale, independent of
// its siblings.
type Component struct {
	ID        string  `json:"id"`
	SubjectID string  `json:"subject_id"`
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	MaxRaw    float64 `json:"max_raw"`
}

type Subject struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Level       string      `json:"level,omitempty"`
	IsComposite bool        `json:"is_composite"`
	MaxRaw      float64     `json:"max_raw,omitempty"` // raw-mark scale for atomic subjects
	Components  []Component `json:"components,omitempty"`
}

// RawMark is one teacher-entered score. TargetID is the subject id for an
// atomic subject, or a component id for a composite one.
type RawMark struct {
	StudentID  string  `json:"student_id"`
	TargetID   string  `json:"target_id"`
	Term       string  `json:"term"`
	Assessment string  `json:"assessment"`
	RawScore   float64 `json:"raw_score"`
	MaxRaw     float64 `json:"max_raw_score"`
}

// SubjectScore is one normalized subject line on a student's result.
// Missing means no component of the subject had a recorded mark; callers
// must branch on it and must not read Percentage as zero.
type SubjectScore struct {
	SubjectID  string  `json:"subject_id"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade,omitempty"`
	Points     float64 `json:"points,omitempty"`
	Missing    bool    `json:"missing,omitempty"`
}

// StudentResult is recomputed on demand and never persisted. Rank is
// assigned by Rank and is zero until then.
type StudentResult struct {
	StudentID   string                  `json:"student_id"`
	StudentName string                  `json:"student_name"`
	Term        string                  `json:"term"`
	Assessment  string                  `json:"assessment"`
	Subjects    map[string]SubjectScore `json:"subjects"`
	TotalScore  float64                 `json:"total_score"`
	Average     float64                 `json:"average_percentage"`
	Grade       string                  `json:"overall_grade,omitempty"`
	Points      float64                 `json:"overall_points,omitempty"`
	Rank        int                     `json:"rank,omitempty"`
}

type SubjectAverage struct {
	SubjectID string  `json:"subject_id"`
	Name      string  `json:"name"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"` // students with at least one mark for the subject
}

type CohortSummary struct {
	Students        int              `json:"students"`
	SubjectAverages []SubjectAverage `json:"subject_averages"`
	BandCounts      map[string]int   `json:"band_counts"`
	MeanAverage     float64          `json:"mean_average"`
	MeanPoints      float64          `json:"mean_points"`
	MeanGrade       string           `json:"mean_grade,omitempty"`
}

// Snapshot is the immutable input bundle for one aggregation run: every
// mark, subject and grading scale the run may touch, fetched once by the
// caller. The engine holds no state of its own between runs.
type Snapshot struct {
	Term       string
	Assessment string
	System     string // active grading system id
	SubjectMax float64
	Students   []Student
	Subjects   []Subject
	Scales     *Registry
	Marks      map[string]map[string]RawMark // student id -> target id -> mark
}

// DefaultSubjectMax is the reporting scale per subject: totals read like
// raw marks out of 100 per subject even though internal math is
// percentage-based.
const DefaultSubjectMax = 100

func (s *Snapshot) subjectMax() float64 {
	if s.SubjectMax > 0 {
		return s.SubjectMax
	}
	return DefaultSubjectMax
}

func (s *Snapshot) mark(studentID, targetID string) (RawMark, bool) {
	byTarget, ok := s.Marks[studentID]
	if !ok {
		return RawMark{}, false
	}
	m, ok := byTarget[targetID]
	return m, ok
}
