package analyzer

import "sort"

// FoodRank is one food tag with its stats, for display.
type FoodRank struct {
	Food string
	FoodStat
}

// RankFoods orders the food correlations by average itch and returns up to
// n of the worst (highest itch) and n of the best (lowest itch). Ties break
// on count, then name. The two lists may overlap when few foods qualify.
func RankFoods(foods map[string]FoodStat, n int) (worst, best []FoodRank) {
	ranked := make([]FoodRank, 0, len(foods))
	for food, stat := range foods {
		ranked = append(ranked, FoodRank{Food: food, FoodStat: stat})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AvgItch != b.AvgItch {
			return a.AvgItch > b.AvgItch
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Food < b.Food
	})

	limit := min(n, len(ranked))
	worst = append(worst, ranked[:limit]...)
	for i := len(ranked) - 1; i >= len(ranked)-limit; i-- {
		best = append(best, ranked[i])
	}
	return worst, best
}

// Finding is a one-line reading of a group correlation.
type Finding struct {
	Topic   string // "sleep", "exercise" or "mood"
	Concern bool   // true when the finding suggests a trigger
	Text    string
}

// Findings reads each present group correlation into a sentence. A positive
// difference means the first-named condition coincides with worse itch.
func Findings(ins Insights) []Finding {
	var out []Finding
	if ins.Sleep != nil {
		if ins.Sleep.Difference > 0 {
			out = append(out, Finding{"sleep", true, "Symptoms are worse after poor sleep."})
		} else {
			out = append(out, Finding{"sleep", false, "Symptoms are not worse after poor sleep (this is unusual)."})
		}
	}
	if ins.Exercise != nil {
		if ins.Exercise.Difference > 0 {
			out = append(out, Finding{"exercise", false, "Exercise may help ease symptoms."})
		} else {
			out = append(out, Finding{"exercise", true, "Symptoms may worsen after exercise, possibly from sweating."})
		}
	}
	if ins.Mood != nil {
		if ins.Mood.Difference > 0 {
			out = append(out, Finding{"mood", true, "Symptoms are worse on bad-mood days; stress may be a trigger."})
		} else {
			out = append(out, Finding{"mood", false, "Mood shows no link to worse symptoms."})
		}
	}
	return out
}
