package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is returned by Validate for records that cannot be stored.
var ErrInvalidRecord = errors.New("invalid record")

// Validate checks a record before insertion. Hard violations are returned as
// an error wrapping ErrInvalidRecord; soft ones (an exercise duration with no
// exercise type) come back as warnings and do not block the insert.
func (r *DailyRecord) Validate() (warnings []string, err error) {
	if r.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRecord)
	}
	if _, perr := time.Parse(DateLayout, r.RecordDate); perr != nil {
		return nil, fmt.Errorf("%w: record_date %q is not YYYY-MM-DD", ErrInvalidRecord, r.RecordDate)
	}
	if r.ItchLevel < 1 || r.ItchLevel > 10 {
		return nil, fmt.Errorf("%w: itch_level must be between 1 and 10, got %d", ErrInvalidRecord, r.ItchLevel)
	}
	if r.SleepQuality != 0 && (r.SleepQuality < 1 || r.SleepQuality > 5) {
		return nil, fmt.Errorf("%w: sleep_quality must be between 1 and 5, got %d", ErrInvalidRecord, r.SleepQuality)
	}
	switch r.Mood {
	case MoodGood, MoodNeutral, MoodBad:
	default:
		return nil, fmt.Errorf("%w: mood must be good, neutral or bad, got %q", ErrInvalidRecord, r.Mood)
	}
	switch r.MealType {
	case "", MealBreakfast, MealLunch, MealDinner, MealSnack:
	default:
		return nil, fmt.Errorf("%w: unknown meal_type %q", ErrInvalidRecord, r.MealType)
	}
	switch r.ExerciseIntensity {
	case "", IntensityLow, IntensityMedium, IntensityHigh:
	default:
		return nil, fmt.Errorf("%w: unknown exercise_intensity %q", ErrInvalidRecord, r.ExerciseIntensity)
	}
	if r.ExerciseDuration != nil && *r.ExerciseDuration < 0 {
		return nil, fmt.Errorf("%w: exercise_duration cannot be negative", ErrInvalidRecord)
	}
	if r.SleepDuration != nil && (*r.SleepDuration < 0 || *r.SleepDuration > 24) {
		return nil, fmt.Errorf("%w: sleep_duration must be between 0 and 24 hours", ErrInvalidRecord)
	}

	if r.ExerciseDuration != nil && r.ExerciseType == "" {
		warnings = append(warnings, "exercise_duration given without exercise_type")
	}
	if r.SleepQuality == 0 {
		warnings = append(warnings, "sleep_quality not recorded")
	}
	return warnings, nil
}
