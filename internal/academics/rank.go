package academics

import "sort"

// Rank orders results by total score descending, breaking exact total ties
// by average percentage descending, then student name ascending. The sort
// is stable, so two students identical on all three keys keep their input
// order. Students tied on (total, average) share a rank and the following
// distinct student skips past them: 1,1,3, not 1,1,2 — competition
// ranking, which is what the printed report format uses.
//
// The input slice is not mutated; an empty cohort ranks to an empty slice.
func Rank(results []StudentResult) []StudentResult {
	out := make([]StudentResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].StudentName < out[j].StudentName
	})
	for i := range out {
		if i > 0 && out[i].TotalScore == out[i-1].TotalScore && out[i].Average == out[i-1].Average {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}
