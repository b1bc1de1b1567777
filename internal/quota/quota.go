// Package quota enforces the per-user daily budget of AI analysis calls.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

// DefaultDailyLimit is the number of AI analyses a user may run per day.
const DefaultDailyLimit = 5

// ErrQuotaExceeded matches every *ExceededError.
var ErrQuotaExceeded = errors.New("daily AI analysis limit reached")

// ExceededError reports a user who has spent the day's budget.
type ExceededError struct {
	Used  int
	Limit int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("Daily AI analysis limit reached (%d/%d). Try again tomorrow.", e.Used, e.Limit)
}

// Is reports ErrQuotaExceeded as equivalent.
func (e *ExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// Status is a snapshot of a user's usage for one day.
type Status struct {
	Allowed   bool `json:"allowed"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

// Counter stores per-user, per-day usage counts. Increment must be atomic.
type Counter interface {
	Count(ctx context.Context, userID, day string) (int, error)
	Increment(ctx context.Context, userID, day string, at time.Time) (int, error)
}

// Tracker checks and records AI usage against a daily limit.
type Tracker struct {
	counter Counter
	limit   int
	locks   *userLocks
	log     zerolog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewTracker returns a Tracker over counter. A limit of zero or less uses
// DefaultDailyLimit.
func NewTracker(counter Counter, limit int, log zerolog.Logger) *Tracker {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Tracker{
		counter: counter,
		limit:   limit,
		locks:   newUserLocks(),
		log:     log,
		now:     time.Now,
	}
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int {
	return t.limit
}

// Today returns the current quota day (UTC calendar date).
func (t *Tracker) Today() string {
	return t.now().UTC().Format(store.DateLayout)
}

// Check reports whether userID may run another analysis on day. If the
// counter cannot be read, Check fails open and reports the user as allowed
// with nothing used.
func (t *Tracker) Check(ctx context.Context, userID, day string) Status {
	used, err := t.counter.Count(ctx, userID, day)
	if err != nil {
		t.log.Warn().Err(err).Str("user_id", userID).Str("day", day).
			Msg("usage read failed, allowing request")
		used = 0
	}
	return t.status(used)
}

// Record adds one use for userID on day and returns the updated status.
func (t *Tracker) Record(ctx context.Context, userID, day string) (Status, error) {
	used, err := t.counter.Increment(ctx, userID, day, t.now())
	if err != nil {
		return Status{}, fmt.Errorf("recording usage: %w", err)
	}
	return t.status(used), nil
}

// Acquire serializes quota-affecting work for userID within this process.
// The returned release func must be called exactly once.
func (t *Tracker) Acquire(ctx context.Context, userID string) (release func(), err error) {
	return t.locks.acquire(ctx, userID)
}

func (t *Tracker) status(used int) Status {
	return Status{
		Allowed:   used < t.limit,
		Used:      used,
		Limit:     t.limit,
		Remaining: max(t.limit-used, 0),
	}
}
