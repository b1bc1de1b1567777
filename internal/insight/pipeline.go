// Package insight runs quota-gated AI analysis over a user's recent
// records: it builds the case summary prompt, calls the configured AI
// service, records usage and hands the narrative to a background writer.
package insight

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dermwatch/internal/quota"
	"github.com/blackwell-systems/dermwatch/internal/session"
	"github.com/blackwell-systems/dermwatch/internal/store"
)

// Defaults for Config.
const (
	DefaultWindowDays      = 30
	DefaultMinRecords      = 3
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 2048
)

// RecordSource reads a user's records. *store.DB implements it.
type RecordSource interface {
	Records(ctx context.Context, q store.RecordQuery) ([]store.DailyRecord, error)
}

// Config tunes the analysis.
type Config struct {
	WindowDays int
	MinRecords int
	// Temperature is nil for DefaultTemperature; zero is a valid setting.
	Temperature     *float64
	MaxOutputTokens int
}

func (c Config) withDefaults() Config {
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if c.MinRecords <= 0 {
		c.MinRecords = DefaultMinRecords
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return c
}

// Deps are the collaborators of a Pipeline. Transcripts may be nil.
type Deps struct {
	Records     RecordSource
	Quota       *quota.Tracker
	Completer   Completer
	Prompts     *PromptBuilder
	Transcripts *TranscriptWriter
	Log         zerolog.Logger
}

// Pipeline runs AI analyses.
type Pipeline struct {
	records     RecordSource
	quota       *quota.Tracker
	ai          Completer
	prompts     *PromptBuilder
	transcripts *TranscriptWriter
	cfg         Config
	log         zerolog.Logger

	now func() time.Time
}

// NewPipeline returns a Pipeline over d.
func NewPipeline(d Deps, cfg Config) *Pipeline {
	return &Pipeline{
		records:     d.Records,
		quota:       d.Quota,
		ai:          d.Completer,
		prompts:     d.Prompts,
		transcripts: d.Transcripts,
		cfg:         cfg.withDefaults(),
		log:         d.Log,
		now:         time.Now,
	}
}

// Result is a completed analysis.
type Result struct {
	Text        string
	RecordCount int
	Used        int
	Limit       int
	Remaining   int
}

// Window returns the inclusive date range of the analysis window ending
// on the UTC day of now.
func Window(now time.Time, days int) (from, to string) {
	today := now.UTC()
	return today.AddDate(0, 0, -days).Format(store.DateLayout), today.Format(store.DateLayout)
}

// Run analyzes the session user's records from the window. The steps run
// in order and stop at the first failure:
//
//   - fewer than MinRecords records: *InsufficientDataError, no quota or
//     network cost
//   - daily limit reached: *quota.ExceededError, no network call
//   - AI call fails: *ServiceError or ErrEmptyResponse, no usage recorded
//
// On success usage is recorded and the transcript is queued for saving.
// Concurrent runs for one user are serialized.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session) (*Result, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	log := p.log.With().Str("user_id", userID).Logger()

	now := p.now()
	from, to := Window(now, p.cfg.WindowDays)
	records, err := p.records.Records(ctx, store.RecordQuery{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	if len(records) < p.cfg.MinRecords {
		return nil, &InsufficientDataError{Have: len(records), Need: p.cfg.MinRecords, WindowDays: p.cfg.WindowDays}
	}

	release, err := p.quota.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	day := p.quota.Today()
	status := p.quota.Check(ctx, userID, day)
	if !status.Allowed {
		return nil, &quota.ExceededError{Used: status.Used, Limit: status.Limit}
	}

	prompt := p.prompts.Build(records)
	start := time.Now()
	text, err := p.ai.Complete(ctx, Request{
		Prompt:          prompt,
		Temperature:     *p.cfg.Temperature,
		MaxOutputTokens: p.cfg.MaxOutputTokens,
	})
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("AI analysis failed")
		return nil, err
	}

	after, err := p.quota.Record(ctx, userID, day)
	if err != nil {
		log.Error().Err(err).Msg("recording AI usage failed")
		used := status.Used + 1
		after = quota.Status{Used: used, Limit: status.Limit, Remaining: max(status.Limit-used, 0)}
	}

	if p.transcripts != nil {
		p.transcripts.Submit(store.Transcript{UserID: userID, AnalysisDate: day, Insights: text, CreatedAt: now})
	}

	log.Info().Int("records", len(records)).Int("used", after.Used).Int("limit", after.Limit).
		Dur("elapsed", time.Since(start)).Msg("AI analysis complete")

	return &Result{
		Text:        text,
		RecordCount: len(records),
		Used:        after.Used,
		Limit:       after.Limit,
		Remaining:   after.Remaining,
	}, nil
}

// Usage reports the session user's quota status for today.
func (p *Pipeline) Usage(ctx context.Context, sess *session.Session) (quota.Status, error) {
	userID, err := session.Require(sess)
	if err != nil {
		return quota.Status{}, err
	}
	return p.quota.Check(ctx, userID, p.quota.Today()), nil
}

// Disclaimer returns the medical disclaimer in the pipeline's language.
func (p *Pipeline) Disclaimer() string {
	return p.prompts.Disclaimer()
}
