package analyzer

import "testing"

func TestRankFoods(t *testing.T) {
	foods := map[string]FoodStat{
		"milk":   {AvgItch: 7.0, Count: 2},
		"egg":    {AvgItch: 6.5, Count: 4},
		"rice":   {AvgItch: 2.0, Count: 3},
		"apple":  {AvgItch: 3.0, Count: 2},
		"shrimp": {AvgItch: 7.0, Count: 5},
	}

	worst, best := RankFoods(foods, 2)

	if len(worst) != 2 || len(best) != 2 {
		t.Fatalf("got %d worst, %d best, want 2 and 2", len(worst), len(best))
	}
	// Equal averages break on count.
	if worst[0].Food != "shrimp" || worst[1].Food != "milk" {
		t.Errorf("worst = %v, want [shrimp milk]", worst)
	}
	if best[0].Food != "rice" || best[1].Food != "apple" {
		t.Errorf("best = %v, want [rice apple]", best)
	}
}

func TestRankFoods_FewerThanN(t *testing.T) {
	worst, best := RankFoods(map[string]FoodStat{"milk": {AvgItch: 5, Count: 2}}, 5)
	if len(worst) != 1 || len(best) != 1 {
		t.Fatalf("got %d worst, %d best, want 1 and 1", len(worst), len(best))
	}

	worst, best = RankFoods(nil, 5)
	if len(worst) != 0 || len(best) != 0 {
		t.Error("expected empty rankings for no foods")
	}
}

func TestFindings(t *testing.T) {
	ins := Insights{
		Sleep:    &SleepCorrelation{Difference: 2.0},
		Exercise: &ExerciseCorrelation{Difference: -1.0},
	}
	got := Findings(ins)
	if len(got) != 2 {
		t.Fatalf("got %d findings, want 2", len(got))
	}
	if got[0].Topic != "sleep" || !got[0].Concern {
		t.Errorf("sleep finding = %+v, want a concern", got[0])
	}
	if got[1].Topic != "exercise" || !got[1].Concern {
		t.Errorf("exercise finding = %+v, want a concern", got[1])
	}

	if len(Findings(Insights{})) != 0 {
		t.Error("no correlations should give no findings")
	}
}
