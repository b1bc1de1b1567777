package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dermwatch/internal/config"
	"github.com/blackwell-systems/dermwatch/internal/insight"
	"github.com/blackwell-systems/dermwatch/internal/logx"
	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/output"
	"github.com/blackwell-systems/dermwatch/internal/quota"
	"github.com/blackwell-systems/dermwatch/internal/session"
	"github.com/blackwell-systems/dermwatch/internal/store"
)

// runtime holds the wired components shared by the commands.
type runtime struct {
	cfg        *config.Config
	secrets    *config.Secrets
	db         *store.DB
	pipeline   *insight.Pipeline
	dispatcher *mcp.Dispatcher
	writer     *insight.TranscriptWriter
	log        zerolog.Logger

	closers []io.Closer
}

// newRuntime loads configuration and wires the store, quota tracker, AI
// completer, analysis pipeline and tool dispatcher. Callers must Close it.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logx.Init(logx.Config{Level: level, Pretty: cfg.Log.Pretty})
	output.AutoColor(flagNoColor || !cfg.Output.Color)

	rt := &runtime{cfg: cfg, secrets: secrets, log: logx.For("app")}

	db, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	rt.db = db
	rt.closers = append(rt.closers, db)

	counter, err := rt.quotaCounter(ctx)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	prompts, err := insight.NewPromptBuilder(cfg.Analysis.Language)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	rt.writer = insight.NewTranscriptWriter(db, logx.For("transcripts"))

	rt.pipeline = insight.NewPipeline(insight.Deps{
		Records:     db,
		Quota:       quota.NewTracker(counter, cfg.Quota.DailyLimit, logx.For("quota")),
		Completer:   rt.completer(),
		Prompts:     prompts,
		Transcripts: rt.writer,
		Log:         logx.For("insight"),
	}, insight.Config{
		WindowDays:      cfg.Analysis.WindowDays,
		MinRecords:      cfg.Analysis.MinRecords,
		Temperature:     &cfg.AI.Temperature,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
	})

	panelLog := logx.For("panel")
	rt.dispatcher = mcp.NewDispatcher(mcp.Deps{
		Records:    db,
		Analyst:    rt.pipeline,
		WindowDays: cfg.Analysis.WindowDays,
		OnPanel: func(panel string) {
			panelLog.Debug().Str("panel", panel).Msg("display hint")
		},
		Log: logx.For("tools"),
	})

	return rt, nil
}

func (rt *runtime) quotaCounter(ctx context.Context) (quota.Counter, error) {
	if rt.cfg.Quota.Backend != "redis" {
		return quota.NewStoreCounter(rt.db), nil
	}
	rc, err := quota.NewRedisCounter(ctx, rt.cfg.Quota.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("connecting quota backend: %w", err)
	}
	rt.closers = append(rt.closers, rc)
	return rc, nil
}

// completer builds the configured AI client. A missing key is reported on
// use rather than at startup so the record tools keep working.
func (rt *runtime) completer() insight.Completer {
	ai := rt.cfg.AI
	key := rt.secrets.APIKey(ai.Provider)

	var (
		c   insight.Completer
		err error
	)
	switch ai.Provider {
	case "anthropic":
		c, err = insight.NewAnthropicCompleter(key, ai.Model)
	default:
		c, err = insight.NewGeminiClient(insight.GeminiConfig{
			APIKey:            key,
			Model:             ai.Model,
			Endpoint:          ai.Endpoint,
			Timeout:           ai.Timeout,
			RequestsPerMinute: ai.RequestsPerMinute,
		})
	}
	if err != nil {
		rt.log.Warn().Err(err).Str("provider", ai.Provider).Msg("AI analysis unavailable")
		return unavailableCompleter{reason: err.Error()}
	}
	return c
}

// unavailableCompleter fails every request with a ServiceError.
type unavailableCompleter struct {
	reason string
}

func (u unavailableCompleter) Complete(context.Context, insight.Request) (string, error) {
	return "", &insight.ServiceError{Message: u.reason}
}

// session resolves the caller's identity: a signed session token when
// DERMWATCH_SESSION_TOKEN is set, otherwise DERMWATCH_USER_ID. It returns
// nil when neither is configured.
func (rt *runtime) session() (*session.Session, error) {
	if rt.secrets.SessionToken != "" {
		issuer, err := rt.issuer(0)
		if err != nil {
			return nil, err
		}
		return issuer.Verify(rt.secrets.SessionToken)
	}
	if rt.secrets.UserID != "" {
		return session.New(rt.secrets.UserID), nil
	}
	return nil, nil
}

// requireSession is session for commands that always need a user.
func (rt *runtime) requireSession() (*session.Session, error) {
	sess, err := rt.session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: set DERMWATCH_USER_ID or DERMWATCH_SESSION_TOKEN", session.ErrNotAuthenticated)
	}
	return sess, nil
}

func (rt *runtime) issuer(ttl time.Duration) (*session.Issuer, error) {
	if rt.secrets.JWTSecret == "" {
		return nil, errors.New("DERMWATCH_JWT_SECRET is not set")
	}
	return session.NewIssuer(rt.secrets.JWTSecret, ttl)
}

// call runs a tool for sess. With --json the raw payload is printed and
// printed is true; a failed call becomes an error either way.
func (rt *runtime) call(ctx context.Context, sess *session.Session, tool string, args any) (payload any, printed bool, err error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, false, err
	}
	payload, ok := rt.dispatcher.Call(ctx, sess, tool, raw)
	if flagJSON {
		if err := printJSON(payload); err != nil {
			return nil, true, err
		}
		printed = true
	}
	if !ok {
		if env, isEnv := payload.(mcp.ErrorEnvelope); isEnv {
			return nil, printed, errors.New(env.Error)
		}
		return nil, printed, fmt.Errorf("%s failed", tool)
	}
	return payload, printed, nil
}

// Close drains pending transcript writes and releases connections.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.writer != nil {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		errs = append(errs, rt.writer.Close(closeCtx))
		cancel()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i].Close())
	}
	return errors.Join(errs...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
