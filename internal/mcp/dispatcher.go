// Package mcp exposes dermwatch operations as agent tools. A Dispatcher
// owns the tool registry and turns every call into a JSON envelope; Server
// speaks MCP JSON-RPC over stdio on top of it.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dermwatch/internal/insight"
	"github.com/blackwell-systems/dermwatch/internal/quota"
	"github.com/blackwell-systems/dermwatch/internal/session"
	"github.com/blackwell-systems/dermwatch/internal/store"
)

// RecordStore is the record access the tools need. *store.DB implements it.
type RecordStore interface {
	Records(ctx context.Context, q store.RecordQuery) ([]store.DailyRecord, error)
	RecordsOn(ctx context.Context, userID, day string) ([]store.DailyRecord, error)
	InsertRecord(ctx context.Context, r *store.DailyRecord) error
}

// Analyst runs AI analyses and reports usage. *insight.Pipeline
// implements it.
type Analyst interface {
	Run(ctx context.Context, sess *session.Session) (*insight.Result, error)
	Usage(ctx context.Context, sess *session.Session) (quota.Status, error)
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Records RecordStore
	Analyst Analyst

	// WindowDays is the statistics window and the search_records default.
	WindowDays int

	// OnPanel, when set, receives the display panel suited to each
	// successful call ("history", "record" or "stats").
	OnPanel func(panel string)

	Log zerolog.Logger
}

// toolDef describes a registered tool.
type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	ReadOnly    bool
	Panel       string
	Handler     toolHandler
}

// toolHandler decodes raw arguments and runs the tool for sess.
type toolHandler func(ctx context.Context, sess *session.Session, args json.RawMessage) (any, error)

// ToolInfo is the published description of a tool.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations *ToolAnnotation `json:"annotations,omitempty"`
}

// ToolAnnotation carries behavioural hints for agents.
type ToolAnnotation struct {
	ReadOnlyHint bool `json:"readOnlyHint"`
}

// Dispatcher routes tool calls. The registry is fixed at construction.
type Dispatcher struct {
	tools    []toolDef
	records  RecordStore
	analyst  Analyst
	window   int
	onPanel  func(string)
	validate *validator.Validate
	log      zerolog.Logger

	now func() time.Time
}

// NewDispatcher builds a Dispatcher and registers every tool.
func NewDispatcher(d Deps) *Dispatcher {
	if d.WindowDays <= 0 {
		d.WindowDays = insight.DefaultWindowDays
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	disp := &Dispatcher{
		records:  d.Records,
		analyst:  d.Analyst,
		window:   d.WindowDays,
		onPanel:  d.OnPanel,
		validate: v,
		log:      d.Log,
		now:      time.Now,
	}
	addTools(disp)
	return disp
}

// register adds a tool whose arguments decode into In. The input schema is
// generated from In, and arguments are validated against In's tags before
// the handler runs.
func register[In any](d *Dispatcher, def toolDef, h func(ctx context.Context, sess *session.Session, in In) (any, error)) {
	schema, err := schemaFor(reflect.TypeOf((*In)(nil)).Elem())
	if err != nil {
		panic(fmt.Sprintf("mcp: tool %s: %v", def.Name, err))
	}
	def.InputSchema = schema
	def.Handler = func(ctx context.Context, sess *session.Session, args json.RawMessage) (any, error) {
		var in In
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := d.validate.Struct(in); err != nil {
			return nil, validationError(err)
		}
		return h(ctx, sess, in)
	}
	d.tools = append(d.tools, def)
}

// jsonFieldName names validation errors after the argument agents send.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// decodeArgs decodes a single JSON object strictly: unknown fields and
// trailing data are rejected.
func decodeArgs(args json.RawMessage, v any) error {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalidInput("%v", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return invalidInput("unexpected data after arguments object")
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidInput("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " failed " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return invalidInput("%s", strings.Join(msgs, "; "))
}

// Tools lists the registered tools in registration order.
func (d *Dispatcher) Tools() []ToolInfo {
	out := make([]ToolInfo, 0, len(d.tools))
	for _, t := range d.tools {
		info := ToolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
		if t.ReadOnly {
			info.Annotations = &ToolAnnotation{ReadOnlyHint: true}
		}
		out = append(out, info)
	}
	return out
}

// Has reports whether name is a registered tool.
func (d *Dispatcher) Has(name string) bool {
	return d.find(name) != nil
}

func (d *Dispatcher) find(name string) *toolDef {
	for i := range d.tools {
		if d.tools[i].Name == name {
			return &d.tools[i]
		}
	}
	return nil
}

// Call runs the named tool for sess. It never returns an error: failures,
// including panics in the tool, come back as an ErrorEnvelope with ok
// false.
func (d *Dispatcher) Call(ctx context.Context, sess *session.Session, name string, args json.RawMessage) (payload any, ok bool) {
	tool := d.find(name)
	if tool == nil {
		return envelopeFor(fmt.Errorf("%w: %s", ErrUnknownTool, name)), false
	}

	start := time.Now()
	result, err := d.safeCall(ctx, sess, tool, args)
	log := d.log.With().Str("tool", name).Dur("elapsed", time.Since(start)).Logger()
	if err != nil {
		env := envelopeFor(err)
		log.Warn().Err(err).Str("error_kind", string(env.ErrorKind)).Msg("tool call failed")
		return env, false
	}
	log.Debug().Msg("tool call")

	if d.onPanel != nil && tool.Panel != "" {
		d.onPanel(tool.Panel)
	}
	return result, true
}

func (d *Dispatcher) safeCall(ctx context.Context, sess *session.Session, tool *toolDef, args json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("tool", tool.Name).Msg("tool panicked")
			result, err = nil, fmt.Errorf("internal error in %s", tool.Name)
		}
	}()
	return tool.Handler(ctx, sess, args)
}

// today returns the current UTC calendar day.
func (d *Dispatcher) today() time.Time {
	return d.now().UTC()
}
