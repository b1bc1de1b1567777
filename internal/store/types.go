// Package store provides access to the dermwatch record store: daily health
// records, the per-user daily AI usage counter and saved AI transcripts.
package store

import "time"

// DateLayout is the calendar-day format used for record_date, usage_date
// and analysis_date.
const DateLayout = "2006-01-02"

// timeLayout is a fixed-width UTC timestamp so stored text sorts
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Meal types.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Exercise intensities.
const (
	IntensityLow    = "low"
	IntensityMedium = "medium"
	IntensityHigh   = "high"
)

// Moods.
const (
	MoodGood    = "good"
	MoodNeutral = "neutral"
	MoodBad     = "bad"
)

// DailyRecord is one observation event for a user. Several records may
// share a record_date; record_time orders them within the day.
type DailyRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RecordDate string    `json:"record_date"`
	RecordTime time.Time `json:"record_time"`

	MealType  string   `json:"meal_type,omitempty"`
	FoodItems []string `json:"food_items,omitempty"`
	FoodNotes string   `json:"food_notes,omitempty"`

	ExerciseType      string `json:"exercise_type,omitempty"`
	ExerciseDuration  *int   `json:"exercise_duration,omitempty"` // minutes
	ExerciseIntensity string `json:"exercise_intensity,omitempty"`

	SleepDuration *float64 `json:"sleep_duration,omitempty"` // hours
	SleepQuality  int      `json:"sleep_quality,omitempty"`  // 1-5, 0 when not recorded
	SleepNotes    string   `json:"sleep_notes,omitempty"`

	ItchLevel     int      `json:"itch_level"` // 1-10
	AffectedAreas []string `json:"affected_areas,omitempty"`
	Mood          string   `json:"mood"`
	SymptomNotes  string   `json:"symptom_notes,omitempty"`

	VoiceInput string `json:"voice_input,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasExercise reports whether the record names an exercise type.
func (r *DailyRecord) HasExercise() bool {
	return r.ExerciseType != ""
}

// RecordQuery selects a user's records. Empty From or To leave that side of
// the date range open.
type RecordQuery struct {
	UserID     string
	From       string
	To         string
	Descending bool
}

// UsageRow is the AI usage counter for one user and calendar day.
type UsageRow struct {
	UserID     string    `json:"user_id"`
	UsageDate  string    `json:"usage_date"`
	UsageCount int       `json:"usage_count"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Transcript is a saved AI analysis narrative.
type Transcript struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AnalysisDate string    `json:"analysis_date"`
	Insights     string    `json:"insights"`
	CreatedAt    time.Time `json:"created_at"`
}
