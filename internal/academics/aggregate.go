package academics

// Aggregate combines one student's normalized subject percentages into a
// StudentResult. Subjects with no marks at all appear with Missing set and
// are excluded from both the total and the average denominator, matching
// Normalize's missing-component policy. The output depends only on the
// snapshot: same input, byte-identical result.
func Aggregate(snap *Snapshot, st Student) (StudentResult, error) {
	out := StudentResult{
		StudentID:   st.ID,
		StudentName: st.Name,
		Term:        snap.Term,
		Assessment:  snap.Assessment,
		Subjects:    make(map[string]SubjectScore, len(snap.Subjects)),
	}
	var total, pctSum float64
	present := 0
	for _, subj := range snap.Subjects {
		pct, ok, err := Normalize(snap, st.ID, subj)
		if err != nil {
			return StudentResult{}, err
		}
		if !ok {
			out.Subjects[subj.ID] = SubjectScore{SubjectID: subj.ID, Missing: true}
			continue
		}
		label, points, err := snap.Scales.GradeFor(pct, snap.System)
		if err != nil {
			return StudentResult{}, err
		}
		out.Subjects[subj.ID] = SubjectScore{
			SubjectID:  subj.ID,
			Percentage: pct,
			Grade:      label,
			Points:     points,
		}
		total += pct / 100 * snap.subjectMax()
		pctSum += pct
		present++
	}
	if present == 0 {
		// Every subject missing: total and average stay zero and no overall
		// grade is assigned. Callers render this as "no marks", not as B.E.
		return out, nil
	}
	out.TotalScore = round1(total)
	out.Average = round1(pctSum / float64(present))
	label, points, err := snap.Scales.GradeFor(out.Average, snap.System)
	if err != nil {
		return StudentResult{}, err
	}
	out.Grade = label
	out.Points = points
	return out, nil
}

// AggregateAll aggregates every student in the snapshot, in roster order.
func AggregateAll(snap *Snapshot) ([]StudentResult, error) {
	results := make([]StudentResult, 0, len(snap.Students))
	for _, st := range snap.Students {
		r, err := Aggregate(snap, st)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}
