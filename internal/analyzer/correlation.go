package analyzer

import "github.com/blackwell-systems/dermwatch/internal/store"

// Sleep quality thresholds. A rating of 3 falls in neither group.
const (
	goodSleepMin = 4
	poorSleepMax = 2
)

// MinFoodOccurrences is how often a food tag must appear before it is
// reported.
const MinFoodOccurrences = 2

// accumulator collects a running sum of itch levels.
type accumulator struct {
	sum   int
	count int
}

func (a *accumulator) add(v int) {
	a.sum += v
	a.count++
}

func (a accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}

// Analyze computes Insights over records. It has no side effects and never
// fails; an empty slice yields zero Insights.
func Analyze(records []store.DailyRecord) Insights {
	ins := Insights{
		TotalRecords:     len(records),
		FoodCorrelations: make(map[string]FoodStat),
	}
	if len(records) == 0 {
		return ins
	}

	var (
		itch, sleep          accumulator
		goodSleep, poorSleep accumulator
		withEx, noEx         accumulator
		goodMood, badMood    accumulator
	)
	foods := make(map[string]*accumulator)

	for _, r := range records {
		itch.add(r.ItchLevel)

		// A quality of 0 means the record did not rate sleep.
		if r.SleepQuality > 0 {
			sleep.add(r.SleepQuality)
			switch {
			case r.SleepQuality >= goodSleepMin:
				goodSleep.add(r.ItchLevel)
			case r.SleepQuality <= poorSleepMax:
				poorSleep.add(r.ItchLevel)
			}
		}

		if r.HasExercise() {
			withEx.add(r.ItchLevel)
		} else {
			noEx.add(r.ItchLevel)
		}

		switch r.Mood {
		case store.MoodGood:
			goodMood.add(r.ItchLevel)
		case store.MoodBad:
			badMood.add(r.ItchLevel)
		}

		for _, food := range r.FoodItems {
			acc, ok := foods[food]
			if !ok {
				acc = &accumulator{}
				foods[food] = acc
			}
			acc.add(r.ItchLevel)
		}
	}

	ins.AvgItch = roundMean(itch.mean())
	ins.AvgSleep = roundMean(sleep.mean())

	for food, acc := range foods {
		if acc.count >= MinFoodOccurrences {
			ins.FoodCorrelations[food] = FoodStat{AvgItch: roundMean(acc.mean()), Count: acc.count}
		}
	}

	if goodSleep.count > 0 && poorSleep.count > 0 {
		ins.Sleep = &SleepCorrelation{
			GoodSleep:  roundMean(goodSleep.mean()),
			PoorSleep:  roundMean(poorSleep.mean()),
			Difference: roundMean(poorSleep.mean() - goodSleep.mean()),
		}
	}
	if withEx.count > 0 && noEx.count > 0 {
		ins.Exercise = &ExerciseCorrelation{
			WithExercise: roundMean(withEx.mean()),
			NoExercise:   roundMean(noEx.mean()),
			Difference:   roundMean(noEx.mean() - withEx.mean()),
		}
	}
	if goodMood.count > 0 && badMood.count > 0 {
		ins.Mood = &MoodCorrelation{
			GoodMood:   roundMean(goodMood.mean()),
			BadMood:    roundMean(badMood.mean()),
			Difference: roundMean(badMood.mean() - goodMood.mean()),
		}
	}

	return ins
}
