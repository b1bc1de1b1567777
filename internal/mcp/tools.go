package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/dermwatch/internal/analyzer"
	"github.com/blackwell-systems/dermwatch/internal/insight"
	"github.com/blackwell-systems/dermwatch/internal/session"
	"github.com/blackwell-systems/dermwatch/internal/store"
)

// Display panels named in tool hints.
const (
	PanelHistory = "history"
	PanelRecord  = "record"
	PanelStats   = "stats"
)

// RecordView is a record as returned to agents.
type RecordView struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`

	MealType  string   `json:"meal_type,omitempty"`
	FoodItems []string `json:"food_items,omitempty"`
	FoodNotes string   `json:"food_notes,omitempty"`

	ExerciseType      string `json:"exercise_type,omitempty"`
	ExerciseDuration  *int   `json:"exercise_duration,omitempty"`
	ExerciseIntensity string `json:"exercise_intensity,omitempty"`

	SleepDuration *float64 `json:"sleep_duration,omitempty"`
	SleepQuality  int      `json:"sleep_quality,omitempty"`
	SleepNotes    string   `json:"sleep_notes,omitempty"`

	ItchLevel     int      `json:"itch_level"`
	AffectedAreas []string `json:"affected_areas,omitempty"`
	Mood          string   `json:"mood"`
	SymptomNotes  string   `json:"symptom_notes,omitempty"`
	VoiceInput    string   `json:"voice_input,omitempty"`
}

func viewOf(r store.DailyRecord) RecordView {
	return RecordView{
		ID:                r.ID,
		Date:              r.RecordDate,
		Time:              r.RecordTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		MealType:          r.MealType,
		FoodItems:         r.FoodItems,
		FoodNotes:         r.FoodNotes,
		ExerciseType:      r.ExerciseType,
		ExerciseDuration:  r.ExerciseDuration,
		ExerciseIntensity: r.ExerciseIntensity,
		SleepDuration:     r.SleepDuration,
		SleepQuality:      r.SleepQuality,
		SleepNotes:        r.SleepNotes,
		ItchLevel:         r.ItchLevel,
		AffectedAreas:     r.AffectedAreas,
		Mood:              r.Mood,
		SymptomNotes:      r.SymptomNotes,
		VoiceInput:        r.VoiceInput,
	}
}

func viewsOf(records []store.DailyRecord) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		out = append(out, viewOf(r))
	}
	return out
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SearchRecordsResult is the search_records payload.
type SearchRecordsResult struct {
	Success   bool         `json:"success"`
	Count     int          `json:"count"`
	DateRange DateRange    `json:"date_range"`
	Records   []RecordView `json:"records"`
}

// TodayRecordsResult is the get_today_records payload.
type TodayRecordsResult struct {
	Success bool         `json:"success"`
	Date    string       `json:"date"`
	Count   int          `json:"count"`
	Records []RecordView `json:"records"`
}

// StatisticsResult is the get_statistics payload.
type StatisticsResult struct {
	Success bool `json:"success"`
	analyzer.Insights
}

// AnalysisResult is the trigger_ai_analysis payload.
type AnalysisResult struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	Analysis           string `json:"analysis"`
	RemainingUsesToday int    `json:"remaining_uses_today"`
}

// UsageResult is the get_usage payload.
type UsageResult struct {
	Success   bool `json:"success"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

// AddRecordResult is the add_record payload.
type AddRecordResult struct {
	Success  bool       `json:"success"`
	Record   RecordView `json:"record"`
	Warnings []string   `json:"warnings"`
}

// errNoStatisticsData is returned by get_statistics for an empty window.
var errNoStatisticsData = fmt.Errorf("%w: No data available. Need at least a few days of records.", insight.ErrInsufficientData)

// addTools registers every tool on d.
func addTools(d *Dispatcher) {
	register(d, toolDef{
		Name:        "search_records",
		Description: "Search dermatitis health records by date range. Returns records with diet, exercise, sleep, and symptom data, newest first. Use when the user asks about past records, patterns, or specific dates.",
		ReadOnly:    true,
		Panel:       PanelHistory,
	}, d.searchRecords)

	register(d, toolDef{
		Name:        "get_today_records",
		Description: "Get all health records for one day (today by default) in time order. Use when the user asks what they have logged today or on a specific date.",
		ReadOnly:    true,
		Panel:       PanelRecord,
	}, d.todayRecords)

	register(d, toolDef{
		Name:        "get_statistics",
		Description: "Get statistical analysis of dermatitis health data for the last 30 days: average itch level, sleep quality, and food, sleep, exercise and mood correlations. Use when the user asks for patterns or a summary.",
		ReadOnly:    true,
		Panel:       PanelStats,
	}, d.statistics)

	register(d, toolDef{
		Name:        "trigger_ai_analysis",
		Description: "Run a deep AI analysis of the last 30 days of health data: trends, likely triggers and personalized recommendations. Limited to a few uses per day. Use when the user asks for AI insights.",
		Panel:       PanelStats,
	}, d.triggerAnalysis)

	register(d, toolDef{
		Name:        "get_usage",
		Description: "Report how many AI analyses the user has run today and how many remain.",
		ReadOnly:    true,
	}, d.usage)

	register(d, toolDef{
		Name:        "add_record",
		Description: "Log a new health record: diet, exercise, sleep and symptoms. itch_level and mood are required.",
		Panel:       PanelHistory,
	}, d.addRecord)
}

func (d *Dispatcher) searchRecords(ctx context.Context, sess *session.Session, in searchRecordsInput) (any, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	days := d.window
	if in.Days != nil && *in.Days > 0 {
		days = int(*in.Days)
	}
	if in.StartDate != "" && in.EndDate != "" && in.StartDate > in.EndDate {
		return nil, invalidInput("start_date %s is after end_date %s", in.StartDate, in.EndDate)
	}

	// Without start_date the window ends at end_date, or today.
	end := d.today()
	if in.EndDate != "" {
		if end, err = time.Parse(store.DateLayout, in.EndDate); err != nil {
			return nil, invalidInput("end_date: %v", err)
		}
	}
	r := DateRange{From: in.StartDate, To: end.Format(store.DateLayout)}
	if r.From == "" {
		r.From = end.AddDate(0, 0, -days).Format(store.DateLayout)
	}

	records, err := d.records.Records(ctx, store.RecordQuery{UserID: userID, From: r.From, To: r.To, Descending: true})
	if err != nil {
		return nil, err
	}
	return SearchRecordsResult{Success: true, Count: len(records), DateRange: r, Records: viewsOf(records)}, nil
}

func (d *Dispatcher) todayRecords(ctx context.Context, sess *session.Session, in todayRecordsInput) (any, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	day := in.Date
	if day == "" {
		day = d.today().Format(store.DateLayout)
	}
	records, err := d.records.RecordsOn(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return TodayRecordsResult{Success: true, Date: day, Count: len(records), Records: viewsOf(records)}, nil
}

func (d *Dispatcher) statistics(ctx context.Context, sess *session.Session, _ noInput) (any, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	from, to := insight.Window(d.now(), d.window)
	records, err := d.records.Records(ctx, store.RecordQuery{UserID: userID, From: from, To: to, Descending: true})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errNoStatisticsData
	}
	return StatisticsResult{Success: true, Insights: analyzer.Analyze(records)}, nil
}

func (d *Dispatcher) triggerAnalysis(ctx context.Context, sess *session.Session, _ noInput) (any, error) {
	res, err := d.analyst.Run(ctx, sess)
	if err != nil {
		return nil, err
	}
	return AnalysisResult{
		Success:            true,
		Message:            fmt.Sprintf("AI analysis of %d records complete.", res.RecordCount),
		Analysis:           res.Text,
		RemainingUsesToday: res.Remaining,
	}, nil
}

func (d *Dispatcher) usage(ctx context.Context, sess *session.Session, _ noInput) (any, error) {
	st, err := d.analyst.Usage(ctx, sess)
	if err != nil {
		return nil, err
	}
	return UsageResult{Success: true, Used: st.Used, Limit: st.Limit, Remaining: st.Remaining}, nil
}

func (d *Dispatcher) addRecord(ctx context.Context, sess *session.Session, in addRecordInput) (any, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	now := d.now()
	r := store.DailyRecord{
		UserID:            userID,
		RecordDate:        in.Date,
		RecordTime:        now,
		MealType:          in.MealType,
		FoodItems:         in.FoodItems,
		FoodNotes:         in.FoodNotes,
		ExerciseType:      in.ExerciseType,
		ExerciseDuration:  in.ExerciseDuration,
		ExerciseIntensity: in.ExerciseIntensity,
		SleepDuration:     in.SleepDuration,
		SleepQuality:      in.SleepQuality,
		SleepNotes:        in.SleepNotes,
		ItchLevel:         in.ItchLevel,
		AffectedAreas:     in.AffectedAreas,
		Mood:              in.Mood,
		SymptomNotes:      in.SymptomNotes,
		VoiceInput:        in.VoiceInput,
	}
	if r.RecordDate == "" {
		r.RecordDate = now.UTC().Format(store.DateLayout)
	}

	warnings, err := r.Validate()
	if err != nil {
		return nil, err
	}
	if err := d.records.InsertRecord(ctx, &r); err != nil {
		return nil, err
	}
	if warnings == nil {
		warnings = []string{}
	}
	return AddRecordResult{Success: true, Record: viewOf(r), Warnings: warnings}, nil
}
