package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const recordColumns = `id, user_id, record_date, record_time, meal_type, food_items, food_notes,
	exercise_type, exercise_duration, exercise_intensity, sleep_duration, sleep_quality, sleep_notes,
	itch_level, affected_areas, mood, symptom_notes, voice_input, created_at`

// InsertRecord stores a new daily record. ID and CreatedAt are assigned when
// empty and written back to r. Records are immutable after insertion.
func (db *DB) InsertRecord(ctx context.Context, r *DailyRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.RecordTime.IsZero() {
		r.RecordTime = r.CreatedAt
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.RecordTime = r.RecordTime.UTC()

	foodItems, err := encodeTags(r.FoodItems)
	if err != nil {
		return err
	}
	areas, err := encodeTags(r.AffectedAreas)
	if err != nil {
		return err
	}

	_, err = db.exec(ctx,
		`INSERT INTO daily_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.RecordDate, r.RecordTime.Format(timeLayout),
		nullable(r.MealType), foodItems, nullable(r.FoodNotes),
		nullable(r.ExerciseType), nullInt(r.ExerciseDuration), nullable(r.ExerciseIntensity),
		nullFloat(r.SleepDuration), nullQuality(r.SleepQuality), nullable(r.SleepNotes),
		r.ItchLevel, areas, r.Mood, nullable(r.SymptomNotes), nullable(r.VoiceInput),
		r.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return storageErr("inserting record", err)
	}
	return nil
}

// Records returns the records matching q, ordered by record_date then
// record_time.
func (db *DB) Records(ctx context.Context, q RecordQuery) ([]DailyRecord, error) {
	query := "SELECT " + recordColumns + " FROM daily_records WHERE user_id = ?"
	args := []any{q.UserID}

	if q.From != "" {
		query += " AND record_date >= ?"
		args = append(args, q.From)
	}
	if q.To != "" {
		query += " AND record_date <= ?"
		args = append(args, q.To)
	}
	if q.Descending {
		query += " ORDER BY record_date DESC, record_time DESC"
	} else {
		query += " ORDER BY record_date ASC, record_time ASC"
	}

	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("querying records", err)
	}
	defer func() { _ = rows.Close() }()

	records := []DailyRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("scanning record", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating records", err)
	}
	return records, nil
}

// RecordsOn returns a user's records for exactly one calendar day in
// record_time order.
func (db *DB) RecordsOn(ctx context.Context, userID, day string) ([]DailyRecord, error) {
	return db.Records(ctx, RecordQuery{UserID: userID, From: day, To: day})
}

func scanRecord(rows *sql.Rows) (DailyRecord, error) {
	var (
		r                                           DailyRecord
		recordTime, createdAt                       string
		mealType, foodItems, foodNotes              sql.NullString
		exerciseType, exerciseIntensity, sleepNotes sql.NullString
		areas, symptomNotes, voiceInput             sql.NullString
		exerciseDuration, sleepQuality              sql.NullInt64
		sleepDuration                               sql.NullFloat64
	)
	if err := rows.Scan(
		&r.ID, &r.UserID, &r.RecordDate, &recordTime, &mealType, &foodItems, &foodNotes,
		&exerciseType, &exerciseDuration, &exerciseIntensity, &sleepDuration, &sleepQuality, &sleepNotes,
		&r.ItchLevel, &areas, &r.Mood, &symptomNotes, &voiceInput, &createdAt,
	); err != nil {
		return r, err
	}

	r.RecordTime, _ = time.Parse(timeLayout, recordTime)
	r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	r.MealType = mealType.String
	r.FoodNotes = foodNotes.String
	r.ExerciseType = exerciseType.String
	r.ExerciseIntensity = exerciseIntensity.String
	r.SleepNotes = sleepNotes.String
	r.SymptomNotes = symptomNotes.String
	r.VoiceInput = voiceInput.String

	if exerciseDuration.Valid {
		d := int(exerciseDuration.Int64)
		r.ExerciseDuration = &d
	}
	if sleepDuration.Valid {
		d := sleepDuration.Float64
		r.SleepDuration = &d
	}
	if sleepQuality.Valid {
		r.SleepQuality = int(sleepQuality.Int64)
	}

	var err error
	if r.FoodItems, err = decodeTags(foodItems); err != nil {
		return r, err
	}
	if r.AffectedAreas, err = decodeTags(areas); err != nil {
		return r, err
	}
	return r, nil
}

// encodeTags stores a tag list as a JSON array; an empty list is NULL.
func encodeTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeTags(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s.String), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullQuality(q int) any {
	if q == 0 {
		return nil
	}
	return q
}
