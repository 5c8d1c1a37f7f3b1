package academics

import (
	"fmt"
	"math"
)

// round1 is the engine-wide precision policy: one decimal place, half away
// from zero. Reports and dashboards must show the same figure, so rounding
// happens in exactly one place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Normalize computes the 0..100 percentage for one (student, subject) pair
// in the snapshot. ok is false when no component of the subject has a
// recorded mark — the MissingMark outcome. It is never reported as 0:
// "not yet uploaded" and "scored zero" are different facts.
//
// For a composite subject with some components missing, the present
// components' weights are re-normalized to sum to 1 before blending.
// Policy decision: a student is not penalized for a component a teacher
// has not uploaded yet, at the cost of comparability across students.
func Normalize(snap *Snapshot, studentID string, subj Subject) (pct float64, ok bool, err error) {
	res, err := Resolve(subj)
	if err != nil {
		return 0, false, err
	}
	var sum, weight float64
	for _, c := range res.Components {
		m, has := snap.mark(studentID, c.ID)
		if !has {
			continue
		}
		cp, err := markPercent(m)
		if err != nil {
			return 0, false, err
		}
		sum += cp * c.Weight
		weight += c.Weight
	}
	if weight == 0 {
		return 0, false, nil
	}
	return round1(sum / weight), true, nil
}

// markPercent converts a raw mark on its own scale into an unrounded
// percentage. Scale violations are rejected here, at the boundary, so no
// division by zero or out-of-range figure can reach the aggregates.
func markPercent(m RawMark) (float64, error) {
	if m.MaxRaw <= 0 {
		return 0, fmt.Errorf("%w: max %v for %s", ErrInvalidMarkScale, m.MaxRaw, m.TargetID)
	}
	if m.RawScore < 0 || m.RawScore > m.MaxRaw {
		return 0, fmt.Errorf("%w: raw %v outside [0,%v] for %s", ErrInvalidMarkScale, m.RawScore, m.MaxRaw, m.TargetID)
	}
	return m.RawScore / m.MaxRaw * 100, nil
}
