package academics

import (
	"fmt"
	"sort"
)

// Band is one labeled percentage range in a grading scale. Min is the
// inclusive lower bound; the upper bound is the next band's Min.
type Band struct {
	Min    float64 `json:"min"`
	Label  string  `json:"label"`
	Points float64 `json:"points"`
}

// Scale is the ordered band table for one grading system. Bands are
// evaluated highest lower-bound first, so a boundary value belongs to the
// higher band: 75.0 is E.E under CBC, not A.E.
type Scale struct {
	System string `json:"system"`
	Bands  []Band `json:"bands"`
}

// Validate checks the band table covers [0,100] with no gaps: at least one
// band, every bound inside [0,100], no duplicate bounds, and a band with
// bound 0 so every percentage lands somewhere.
func (s Scale) Validate() error {
	if s.System == "" {
		return fmt.Errorf("%w: empty system id", ErrInvalidScale)
	}
	if len(s.Bands) == 0 {
		return fmt.Errorf("%w: %s has no bands", ErrInvalidScale, s.System)
	}
	seen := map[float64]string{}
	hasZero := false
	for _, b := range s.Bands {
		if b.Min < 0 || b.Min > 100 {
			return fmt.Errorf("%w: %s band %q bound %v outside [0,100]", ErrInvalidScale, s.System, b.Label, b.Min)
		}
		if prev, dup := seen[b.Min]; dup {
			return fmt.Errorf("%w: %s bands %q and %q share bound %v", ErrInvalidScale, s.System, prev, b.Label, b.Min)
		}
		seen[b.Min] = b.Label
		if b.Min == 0 {
			hasZero = true
		}
	}
	if !hasZero {
		return fmt.Errorf("%w: %s has no band with bound 0", ErrInvalidScale, s.System)
	}
	return nil
}

// GradeFor maps a percentage to (label, points). Out-of-range input is a
// caller error, never clamped.
func (s Scale) GradeFor(pct float64) (string, float64, error) {
	if pct < 0 || pct > 100 {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidPercentage, pct)
	}
	bands := make([]Band, len(s.Bands))
	copy(bands, s.Bands)
	sort.SliceStable(bands, func(i, j int) bool { return bands[i].Min > bands[j].Min })
	for _, b := range bands {
		if pct >= b.Min {
			return b.Label, b.Points, nil
		}
	}
	// unreachable once Validate has passed (some band has Min == 0)
	return "", 0, fmt.Errorf("%w: no band for %v in %s", ErrInvalidScale, pct, s.System)
}

// Registry holds the grading systems active for a run. The caller decides
// which system applies; nothing here is process-global.
type Registry struct {
	scales map[string]Scale
}

func NewRegistry(scales ...Scale) (*Registry, error) {
	r := &Registry{scales: make(map[string]Scale, len(scales))}
	for _, s := range scales {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		r.scales[s.System] = s
	}
	return r, nil
}

func (r *Registry) Get(system string) (Scale, bool) {
	s, ok := r.scales[system]
	return s, ok
}

func (r *Registry) Systems() []string {
	out := make([]string, 0, len(r.scales))
	for k := range r.scales {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) GradeFor(pct float64, system string) (string, float64, error) {
	s, ok := r.scales[system]
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownSystem, system)
	}
	return s.GradeFor(pct)
}

// Built-in scales. Schools can replace these per deployment; they are the
// vocabularies the standard report formats use.
const (
	SystemCBC    = "cbc"
	SystemLetter = "letter"
)

func CBCScale() Scale {
	return Scale{System: SystemCBC, Bands: []Band{
		{Min: 75, Label: "E.E", Points: 4},
		{Min: 50, Label: "M.E", Points: 3},
		{Min: 30, Label: "A.E", Points: 2},
		{Min: 0, Label: "B.E", Points: 1},
	}}
}

func LetterScale() Scale {
	return Scale{System: SystemLetter, Bands: []Band{
		{Min: 80, Label: "A", Points: 12},
		{Min: 75, Label: "A-", Points: 11},
		{Min: 70, Label: "B+", Points: 10},
		{Min: 65, Label: "B", Points: 9},
		{Min: 60, Label: "B-", Points: 8},
		{Min: 55, Label: "C+", Points: 7},
		{Min: 50, Label: "C", Points: 6},
		{Min: 45, Label: "C-", Points: 5},
		{Min: 40, Label: "D+", Points: 4},
		{Min: 35, Label: "D", Points: 3},
		{Min: 30, Label: "D-", Points: 2},
		{Min: 0, Label: "E", Points: 1},
	}}
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(CBCScale(), LetterScale())
	if err != nil {
		panic(err) // built-in tables are static; a failure here is a programming error
	}
	return r
}
