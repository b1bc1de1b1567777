// Package analyzer turns a window of daily records into correlation insights.
package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Mean is an average rounded to one decimal place. It marshals as a
// one-decimal string ("7.0") so agents see the same value a person reads.
type Mean float64

// roundMean rounds half away from zero to one decimal.
func roundMean(v float64) Mean {
	r := math.Round(v*10) / 10
	if r == 0 {
		r = 0 // no "-0.0"
	}
	return Mean(r)
}

// String formats m with exactly one decimal.
func (m Mean) String() string {
	return strconv.FormatFloat(float64(m), 'f', 1, 64)
}

// MarshalJSON implements json.Marshaler.
func (m Mean) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both the string form and a bare number.
func (m *Mean) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing mean %q: %w", s, err)
		}
		*m = Mean(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parsing mean: %w", err)
	}
	*m = Mean(v)
	return nil
}

// Insights is the correlation summary for a window of records. Group
// correlations are nil unless both of their groups had records.
type Insights struct {
	// TotalRecords is the number of records analyzed.
	TotalRecords int `json:"total_records"`

	// AvgItch is the mean itch level (1-10).
	AvgItch Mean `json:"avg_itch_level"`

	// AvgSleep is the mean sleep quality (1-5) over records that rated it.
	AvgSleep Mean `json:"avg_sleep_quality"`

	// FoodCorrelations maps a food tag to the mean itch level of records
	// that logged it. Only tags seen at least twice are present.
	FoodCorrelations map[string]FoodStat `json:"food_correlations"`

	Sleep    *SleepCorrelation    `json:"sleep_correlation"`
	Exercise *ExerciseCorrelation `json:"exercise_correlation"`
	Mood     *MoodCorrelation     `json:"mood_correlation"`
}

// FoodStat is the itch average for one food tag.
type FoodStat struct {
	AvgItch Mean `json:"avgItch"`
	Count   int  `json:"count"`
}

// SleepCorrelation compares itch after good (quality 4-5) and poor
// (quality 1-2) sleep. Difference is poor minus good.
type SleepCorrelation struct {
	GoodSleep  Mean `json:"goodSleep"`
	PoorSleep  Mean `json:"poorSleep"`
	Difference Mean `json:"difference"`
}

// ExerciseCorrelation compares itch on records with and without exercise.
// Difference is no-exercise minus with-exercise.
type ExerciseCorrelation struct {
	WithExercise Mean `json:"withExercise"`
	NoExercise   Mean `json:"noExercise"`
	Difference   Mean `json:"difference"`
}

// MoodCorrelation compares itch on good-mood and bad-mood records.
// Difference is bad minus good.
type MoodCorrelation struct {
	GoodMood   Mean `json:"goodMood"`
	BadMood    Mean `json:"badMood"`
	Difference Mean `json:"difference"`
}
