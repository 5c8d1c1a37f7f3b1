package academics

// Summarize derives class-level statistics from already-aggregated student
// results. Per-subject averages run over the students who actually have a
// mark for the subject; a student with nothing uploaded shrinks the
// denominator instead of dragging the mean down with a phantom zero.
func Summarize(snap *Snapshot, results []StudentResult) (CohortSummary, error) {
	cs := CohortSummary{
		Students:   len(results),
		BandCounts: map[string]int{},
	}
	for _, subj := range snap.Subjects {
		var sum float64
		n := 0
		for _, r := range results {
			sc, ok := r.Subjects[subj.ID]
			if !ok || sc.Missing {
				continue
			}
			sum += sc.Percentage
			n++
		}
		sa := SubjectAverage{SubjectID: subj.ID, Name: subj.Name, Count: n}
		if n > 0 {
			sa.Average = round1(sum / float64(n))
		}
		cs.SubjectAverages = append(cs.SubjectAverages, sa)
	}
	var avgSum, ptsSum float64
	graded := 0
	for _, r := range results {
		if r.Grade == "" {
			continue // no marks at all; not in any band
		}
		cs.BandCounts[r.Grade]++
		avgSum += r.Average
		ptsSum += r.Points
		graded++
	}
	if graded > 0 {
		cs.MeanAverage = round1(avgSum / float64(graded))
		cs.MeanPoints = round1(ptsSum / float64(graded))
		label, _, err := snap.Scales.GradeFor(cs.MeanAverage, snap.System)
		if err != nil {
			return CohortSummary{}, err
		}
		cs.MeanGrade = label
	}
	return cs, nil
}

// Union concatenates per-stream result sets for a grade-level roll-up.
// Roll-ups must re-summarize the union of underlying student results;
// averaging the per-stream summaries would skew toward small streams
// whenever stream sizes differ.
func Union(groups ...[]StudentResult) []StudentResult {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]StudentResult, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
