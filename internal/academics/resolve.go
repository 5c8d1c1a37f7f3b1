package academics

import (
	"fmt"
	"math"
)

// weightEpsilon bounds how far a composite subject's weights may drift
// from 1.0 before the definition is rejected.
const weightEpsilon = 1e-6

// Resolution is a subject reduced to the components normalization works
// over. Atomic subjects resolve to a single pseudo-component of weight 1,
// so downstream code has exactly one path.
type Resolution struct {
	IsComposite bool
	Components  []Component
}

// Resolve classifies a subject and, for composites, enforces the weight
// invariants at the moment of use rather than at write time: a caller must
// never receive components that would silently misweight a score.
func Resolve(s Subject) (Resolution, error) {
	if !s.IsComposite {
		return Resolution{Components: []Component{{
			ID:        s.ID,
			SubjectID: s.ID,
			Name:      s.Name,
			Weight:    1,
			MaxRaw:    s.MaxRaw,
		}}}, nil
	}
	if len(s.Components) == 0 {
		return Resolution{}, fmt.Errorf("%w: %s has no components", ErrInvalidCompositeDefinition, s.ID)
	}
	var sum float64
	for _, c := range s.Components {
		if c.Weight <= 0 {
			return Resolution{}, fmt.Errorf("%w: %s component %s weight %v", ErrInvalidCompositeDefinition, s.ID, c.ID, c.Weight)
		}
		sum += c.Weight
	}
	if math.Abs(sum-1) > weightEpsilon {
		return Resolution{}, fmt.Errorf("%w: %s weights sum to %v", ErrInvalidCompositeDefinition, s.ID, sum)
	}
	comps := make([]Component, len(s.Components))
	copy(comps, s.Components)
	return Resolution{IsComposite: true, Components: comps}, nil
}
