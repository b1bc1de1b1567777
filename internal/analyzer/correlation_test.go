package analyzer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

func rec(itch int, mood string, foods ...string) store.DailyRecord {
	return store.DailyRecord{ItchLevel: itch, Mood: mood, FoodItems: foods}
}

func TestAnalyze_MilkRiceScenario(t *testing.T) {
	records := []store.DailyRecord{
		rec(8, store.MoodNeutral, "milk"),
		rec(6, store.MoodNeutral, "milk"),
		rec(2, store.MoodNeutral, "rice"),
	}

	ins := Analyze(records)

	if ins.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", ins.TotalRecords)
	}
	if ins.AvgItch.String() != "5.3" {
		t.Errorf("AvgItch = %s, want 5.3", ins.AvgItch)
	}
	milk, ok := ins.FoodCorrelations["milk"]
	if !ok {
		t.Fatal("milk missing from food correlations")
	}
	if milk.AvgItch.String() != "7.0" || milk.Count != 2 {
		t.Errorf("milk = {%s, %d}, want {7.0, 2}", milk.AvgItch, milk.Count)
	}
	if _, ok := ins.FoodCorrelations["rice"]; ok {
		t.Error("rice has one occurrence and must be absent")
	}

	data, err := json.Marshal(ins.FoodCorrelations["milk"])
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"avgItch":"7.0","count":2}`; got != want {
		t.Errorf("milk JSON = %s, want %s", got, want)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	ins := Analyze(nil)
	if ins.TotalRecords != 0 || ins.AvgItch != 0 || ins.AvgSleep != 0 {
		t.Errorf("expected zero insights, got %+v", ins)
	}
	if ins.FoodCorrelations == nil {
		t.Error("FoodCorrelations should be an empty map, not nil")
	}
	if ins.Sleep != nil || ins.Exercise != nil || ins.Mood != nil {
		t.Error("group correlations must be nil for empty input")
	}
}

func TestAnalyze_FoodCountsEveryTag(t *testing.T) {
	records := []store.DailyRecord{
		rec(4, store.MoodGood, "egg", "milk"),
		rec(6, store.MoodGood, "egg", "milk", "wheat"),
		rec(9, store.MoodGood, "egg"),
	}
	ins := Analyze(records)

	want := map[string]FoodStat{
		"egg":  {AvgItch: 6.3, Count: 3},
		"milk": {AvgItch: 5.0, Count: 2},
	}
	if len(ins.FoodCorrelations) != len(want) {
		t.Fatalf("got %d foods, want %d: %v", len(ins.FoodCorrelations), len(want), ins.FoodCorrelations)
	}
	for food, w := range want {
		got := ins.FoodCorrelations[food]
		if got != w {
			t.Errorf("%s = %+v, want %+v", food, got, w)
		}
	}
}

func TestAnalyze_SleepGroups(t *testing.T) {
	tests := []struct {
		name      string
		qualities []int
		itch      []int
		want      *SleepCorrelation
	}{
		{
			name:      "both groups present",
			qualities: []int{5, 4, 1, 2},
			itch:      []int{2, 4, 8, 7},
			want:      &SleepCorrelation{GoodSleep: 3.0, PoorSleep: 7.5, Difference: 4.5},
		},
		{
			name:      "quality 3 is in neither group",
			qualities: []int{3, 3, 5},
			itch:      []int{9, 9, 1},
			want:      nil,
		},
		{
			name:      "only good sleep",
			qualities: []int{4, 5},
			itch:      []int{3, 3},
			want:      nil,
		},
		{
			name:      "unrated sleep is ignored",
			qualities: []int{0, 0, 4},
			itch:      []int{9, 9, 2},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []store.DailyRecord
			for i := range tt.qualities {
				r := rec(tt.itch[i], store.MoodNeutral)
				r.SleepQuality = tt.qualities[i]
				records = append(records, r)
			}
			got := Analyze(records).Sleep
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected no sleep correlation, got %+v", *got)
			case tt.want != nil && got == nil:
				t.Errorf("expected %+v, got nil", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("got %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestAnalyze_AvgSleepSkipsUnrated(t *testing.T) {
	records := []store.DailyRecord{rec(5, store.MoodGood), rec(5, store.MoodGood), rec(5, store.MoodGood)}
	records[0].SleepQuality = 4
	records[1].SleepQuality = 2

	if got := Analyze(records).AvgSleep; got != 3.0 {
		t.Errorf("AvgSleep = %s, want 3.0", got)
	}
}

func TestAnalyze_ExerciseAndMood(t *testing.T) {
	withEx := rec(3, store.MoodGood)
	withEx.ExerciseType = "yoga"
	records := []store.DailyRecord{
		withEx,
		rec(7, store.MoodBad),
		rec(8, store.MoodBad),
		rec(5, store.MoodNeutral),
	}

	ins := Analyze(records)

	if ins.Exercise == nil {
		t.Fatal("expected exercise correlation")
	}
	if want := (ExerciseCorrelation{WithExercise: 3.0, NoExercise: 6.7, Difference: 3.7}); *ins.Exercise != want {
		t.Errorf("exercise = %+v, want %+v", *ins.Exercise, want)
	}

	if ins.Mood == nil {
		t.Fatal("expected mood correlation")
	}
	if want := (MoodCorrelation{GoodMood: 3.0, BadMood: 7.5, Difference: 4.5}); *ins.Mood != want {
		t.Errorf("mood = %+v, want %+v", *ins.Mood, want)
	}
}

func TestAnalyze_NoMoodCorrelationWithoutBadDays(t *testing.T) {
	ins := Analyze([]store.DailyRecord{rec(2, store.MoodGood), rec(4, store.MoodNeutral)})
	if ins.Mood != nil {
		t.Errorf("expected nil mood correlation, got %+v", *ins.Mood)
	}
	// Nobody exercised, so the exercise pair is incomplete too.
	if ins.Exercise != nil {
		t.Errorf("expected nil exercise correlation, got %+v", *ins.Exercise)
	}
}

func TestAnalyze_AveragesInRange(t *testing.T) {
	var records []store.DailyRecord
	for i := 1; i <= 10; i++ {
		r := rec(i, store.MoodNeutral)
		r.SleepQuality = (i % 5) + 1
		records = append(records, r)
	}
	ins := Analyze(records)
	if ins.AvgItch < 1 || ins.AvgItch > 10 {
		t.Errorf("AvgItch %s out of range", ins.AvgItch)
	}
	if ins.AvgSleep < 1 || ins.AvgSleep > 5 {
		t.Errorf("AvgSleep %s out of range", ins.AvgSleep)
	}
	if math.IsNaN(float64(ins.AvgItch)) || math.IsNaN(float64(ins.AvgSleep)) {
		t.Error("averages must not be NaN")
	}
}

func TestMean_JSON(t *testing.T) {
	tests := []struct {
		in   Mean
		want string
	}{
		{roundMean(7), `"7.0"`},
		{roundMean(16.0 / 3), `"5.3"`},
		{roundMean(5.25), `"5.3"`},
		{roundMean(-0.04), `"0.0"`},
		{roundMean(-1.26), `"-1.3"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", float64(tt.in), data, tt.want)
		}
	}

	var m Mean
	if err := json.Unmarshal([]byte(`"4.5"`), &m); err != nil || m != 4.5 {
		t.Errorf("Unmarshal string: got %v, %v", m, err)
	}
	if err := json.Unmarshal([]byte(`2.5`), &m); err != nil || m != 2.5 {
		t.Errorf("Unmarshal number: got %v, %v", m, err)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Error("expected error for non-numeric string")
	}
}
