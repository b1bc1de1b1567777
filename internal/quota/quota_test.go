package quota

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

type failingCounter struct{}

func (failingCounter) Count(context.Context, string, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (failingCounter) Increment(context.Context, string, string, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func newStoreTracker(t *testing.T, limit int) *Tracker {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTracker(NewStoreCounter(db), limit, zerolog.Nop())
}

func TestCheck_EmptyCounter(t *testing.T) {
	tr := newStoreTracker(t, 5)
	got := tr.Check(context.Background(), "u1", "2026-03-14")
	assert.Equal(t, Status{Allowed: true, Used: 0, Limit: 5, Remaining: 5}, got)
}

func TestRecord_CountsUpToLimit(t *testing.T) {
	tr := newStoreTracker(t, 5)
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		st, err := tr.Record(ctx, "u1", "2026-03-14")
		require.NoError(t, err)
		assert.Equal(t, n, st.Used)
		assert.Equal(t, 5-n, st.Remaining)
	}

	got := tr.Check(ctx, "u1", "2026-03-14")
	assert.False(t, got.Allowed)
	assert.Equal(t, 5, got.Used)
	assert.Equal(t, 0, got.Remaining)

	// A new day starts from zero.
	assert.True(t, tr.Check(ctx, "u1", "2026-03-15").Allowed)
}

func TestCheck_FailsOpen(t *testing.T) {
	tr := NewTracker(failingCounter{}, 3, zerolog.Nop())
	got := tr.Check(context.Background(), "u1", "2026-03-14")
	assert.Equal(t, Status{Allowed: true, Used: 0, Limit: 3, Remaining: 3}, got)

	_, err := tr.Record(context.Background(), "u1", "2026-03-14")
	assert.Error(t, err)
}

func TestNewTracker_DefaultLimit(t *testing.T) {
	tr := NewTracker(failingCounter{}, 0, zerolog.Nop())
	assert.Equal(t, DefaultDailyLimit, tr.Limit())
}

func TestToday_UsesUTC(t *testing.T) {
	tr := NewTracker(failingCounter{}, 5, zerolog.Nop())
	tz := time.FixedZone("UTC+8", 8*3600)
	tr.now = func() time.Time { return time.Date(2026, 3, 15, 2, 0, 0, 0, tz) }
	assert.Equal(t, "2026-03-14", tr.Today())
}

func TestExceededError(t *testing.T) {
	var err error = &ExceededError{Used: 5, Limit: 5}
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, "Daily AI analysis limit reached (5/5). Try again tomorrow.", err.Error())

	var ex *ExceededError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, 5, ex.Used)
}

func TestAcquire_SerializesPerUser(t *testing.T) {
	tr := newStoreTracker(t, 5)
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := tr.Acquire(ctx, "u1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Zero(t, tr.locks.len(), "lock entries should be dropped once released")
}

func TestAcquire_OtherUsersDoNotBlock(t *testing.T) {
	tr := newStoreTracker(t, 5)
	ctx := context.Background()

	release, err := tr.Acquire(ctx, "u1")
	require.NoError(t, err)
	defer release()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	release2, err := tr.Acquire(ctx2, "u2")
	require.NoError(t, err)
	release2()
}

func TestAcquire_ContextCancelled(t *testing.T) {
	tr := newStoreTracker(t, 5)

	release, err := tr.Acquire(context.Background(), "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tr.Acquire(ctx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // second call is a no-op
	assert.Zero(t, tr.locks.len())
}

func TestAcquire_CheckThenRecordNeverOvershoots(t *testing.T) {
	tr := newStoreTracker(t, 5)
	ctx := context.Background()
	day := "2026-03-14"

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := tr.Acquire(ctx, "u1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			if !tr.Check(ctx, "u1", day).Allowed {
				return
			}
			if _, err := tr.Record(ctx, "u1", day); assert.NoError(t, err) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), granted.Load())
	assert.Equal(t, 5, tr.Check(ctx, "u1", day).Used)
}

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("DERMWATCH_TEST_REDIS")
	if addr == "" {
		t.Skip("DERMWATCH_TEST_REDIS not set")
	}
	ctx := context.Background()

	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	prefix := "dermwatch-test-" + time.Now().Format("150405.000000000")
	c := NewRedisCounterFromClient(rdb, prefix)
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		_ = c.Close()
	})

	n, err := c.Count(ctx, "u1", "2026-03-14")
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		n, err := c.Increment(ctx, "u1", "2026-03-14", time.Now())
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ttl, err := rdb.TTL(ctx, c.key("u1", "2026-03-14")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	tr := NewTracker(c, 3, zerolog.Nop())
	assert.False(t, tr.Check(ctx, "u1", "2026-03-14").Allowed)
}
