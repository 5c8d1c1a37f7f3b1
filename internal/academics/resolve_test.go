package academics_test

import (
	"errors"
	"testing"

	"github.com/darasahub/darasa/internal/academics"
)

func TestResolve_Atomic(t *testing.T) {
	subj := academics.Subject{ID: "math", Name: "Mathematics", MaxRaw: 100}
	res, err := academics.Resolve(subj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsComposite {
		t.Fatalf("atomic subject resolved as composite")
	}
	if len(res.Components) != 1 {
		t.Fatalf("want 1 pseudo-component, got %d", len(res.Components))
	}
	c := res.Components[0]
	if c.ID != "math" || c.Weight != 1 || c.MaxRaw != 100 {
		t.Fatalf("pseudo-component mismatch: %+v", c)
	}
}

func TestResolve_Composite(t *testing.T) {
	subj := academics.Subject{
		ID: "eng", Name: "English", IsComposite: true,
		Components: []academics.Component{
			{ID: "eng-gram", SubjectID: "eng", Name: "Grammar", Weight: 0.6, MaxRaw: 60},
			{ID: "eng-comp", SubjectID: "eng", Name: "Composition", Weight: 0.4, MaxRaw: 40},
		},
	}
	res, err := academics.Resolve(subj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsComposite || len(res.Components) != 2 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if res.Components[0].ID != "eng-gram" {
		t.Fatalf("component order not preserved: %+v", res.Components)
	}
}

func TestResolve_InvalidDefinitions(t *testing.T) {
	cases := []struct {
		name string
		subj academics.Subject
	}{
		{"no components", academics.Subject{ID: "eng", IsComposite: true}},
		{"weights under 1", academics.Subject{ID: "eng", IsComposite: true, Components: []academics.Component{
			{ID: "a", Weight: 0.5}, {ID: "b", Weight: 0.4},
		}}},
		{"weights over 1", academics.Subject{ID: "eng", IsComposite: true, Components: []academics.Component{
			{ID: "a", Weight: 0.7}, {ID: "b", Weight: 0.4},
		}}},
		{"zero weight", academics.Subject{ID: "eng", IsComposite: true, Components: []academics.Component{
			{ID: "a", Weight: 0}, {ID: "b", Weight: 1},
		}}},
	}
	for _, c := range cases {
		if _, err := academics.Resolve(c.subj); !errors.Is(err, academics.ErrInvalidCompositeDefinition) {
			t.Fatalf("%s: got %v; want ErrInvalidCompositeDefinition", c.name, err)
		}
	}
}

func TestResolve_WeightEpsilon(t *testing.T) {
	// 0.3333.. * 3 does not hit 1.0 exactly; the epsilon must absorb it.
	third := 1.0 / 3.0
	subj := academics.Subject{ID: "sci", IsComposite: true, Components: []academics.Component{
		{ID: "a", Weight: third, MaxRaw: 30},
		{ID: "b", Weight: third, MaxRaw: 30},
		{ID: "c", Weight: third, MaxRaw: 40},
	}}
	if _, err := academics.Resolve(subj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
