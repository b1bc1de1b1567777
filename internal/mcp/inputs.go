package mcp

import (
	"encoding/json"
	"fmt"
	"math"
)

// Tool inputs. The published schema is generated from these tags; see
// schemaFor.

type searchRecordsInput struct {
	Days      *dayCount `json:"days,omitempty" desc:"Number of days to look back, e.g. 7, 30 or 90. Defaults to 30; 0 also means the default." validate:"omitempty,min=0,max=3650"`
	StartDate string    `json:"start_date,omitempty" desc:"Start date YYYY-MM-DD. Overrides days if provided." validate:"omitempty,datetime=2006-01-02"`
	EndDate   string    `json:"end_date,omitempty" desc:"End date YYYY-MM-DD. Defaults to today." validate:"omitempty,datetime=2006-01-02"`
}

// dayCount is a whole number of days. Agents often send integral floats
// such as 7.0, so any number without a fractional part is accepted.
type dayCount int

func (n *dayCount) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("days must be a number: %w", err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("days must be a whole number, got %s", b)
	}
	*n = dayCount(f)
	return nil
}

type todayRecordsInput struct {
	Date string `json:"date,omitempty" desc:"Date in YYYY-MM-DD format. Defaults to today." validate:"omitempty,datetime=2006-01-02"`
}

type noInput struct{}

type addRecordInput struct {
	Date     string `json:"date,omitempty" desc:"Record date YYYY-MM-DD. Defaults to today." validate:"omitempty,datetime=2006-01-02"`
	MealType string `json:"meal_type,omitempty" desc:"Meal the foods belong to." validate:"omitempty,oneof=breakfast lunch dinner snack"`

	FoodItems []string `json:"food_items,omitempty" desc:"Foods eaten, one tag per item." validate:"omitempty,max=50,dive,required,max=100"`
	FoodNotes string   `json:"food_notes,omitempty" desc:"Free-text diet notes." validate:"omitempty,max=2000"`

	ExerciseType      string `json:"exercise_type,omitempty" desc:"Kind of exercise, e.g. running." validate:"omitempty,max=100"`
	ExerciseDuration  *int   `json:"exercise_duration,omitempty" desc:"Exercise duration in minutes." validate:"omitempty,min=0,max=1440"`
	ExerciseIntensity string `json:"exercise_intensity,omitempty" desc:"Exercise intensity." validate:"omitempty,oneof=low medium high"`

	SleepDuration *float64 `json:"sleep_duration,omitempty" desc:"Hours slept." validate:"omitempty,min=0,max=24"`
	SleepQuality  int      `json:"sleep_quality,omitempty" desc:"Sleep quality from 1 (poor) to 5 (good)." validate:"omitempty,min=1,max=5"`
	SleepNotes    string   `json:"sleep_notes,omitempty" desc:"Free-text sleep notes." validate:"omitempty,max=2000"`

	ItchLevel     int      `json:"itch_level" desc:"Itch severity from 1 (mild) to 10 (severe)." validate:"required,min=1,max=10"`
	AffectedAreas []string `json:"affected_areas,omitempty" desc:"Affected body regions." validate:"omitempty,max=30,dive,required,max=100"`
	Mood          string   `json:"mood" desc:"Overall mood." validate:"required,oneof=good neutral bad"`
	SymptomNotes  string   `json:"symptom_notes,omitempty" desc:"Free-text symptom notes." validate:"omitempty,max=2000"`
	VoiceInput    string   `json:"voice_input,omitempty" desc:"Dictated transcript, stored as-is." validate:"omitempty,max=5000"`
}
