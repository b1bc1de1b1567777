package insight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

// ErrWriterClosed is reported for transcripts submitted after Close.
var ErrWriterClosed = errors.New("transcript writer closed")

// TranscriptSink persists transcripts. *store.DB implements it.
type TranscriptSink interface {
	InsertTranscript(ctx context.Context, t *store.Transcript) error
}

// TranscriptWriter saves transcripts on a background goroutine. Callers
// never wait on the write; failures are logged and reported on Errors and
// to the optional hook.
type TranscriptWriter struct {
	sink    TranscriptSink
	log     zerolog.Logger
	timeout time.Duration
	onError func(store.Transcript, error)

	queue chan store.Transcript
	errs  chan error

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// WriterOption configures a TranscriptWriter.
type WriterOption func(*TranscriptWriter)

// WithErrorHook calls fn for every failed write. Failed writes run it on
// the writer goroutine; a rejected Submit (full queue or closed writer)
// runs it on the caller's goroutine before Submit returns.
func WithErrorHook(fn func(store.Transcript, error)) WriterOption {
	return func(w *TranscriptWriter) { w.onError = fn }
}

// WithWriteTimeout bounds each write. The default is 10 seconds.
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *TranscriptWriter) { w.timeout = d }
}

// WithQueueSize sets how many transcripts may wait to be written.
func WithQueueSize(n int) WriterOption {
	return func(w *TranscriptWriter) { w.queue = make(chan store.Transcript, n) }
}

// NewTranscriptWriter starts a writer over sink. Call Close to drain it.
func NewTranscriptWriter(sink TranscriptSink, log zerolog.Logger, opts ...WriterOption) *TranscriptWriter {
	w := &TranscriptWriter{
		sink:    sink,
		log:     log,
		timeout: 10 * time.Second,
		queue:   make(chan store.Transcript, 16),
		errs:    make(chan error, 16),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Errors returns failed writes. Errors are dropped when nobody reads and
// the buffer is full.
func (w *TranscriptWriter) Errors() <-chan error {
	return w.errs
}

// Submit queues t for writing and returns immediately. A full queue or a
// closed writer counts as a failed write.
func (w *TranscriptWriter) Submit(t store.Transcript) {
	if err := w.enqueue(t); err != nil {
		w.fail(t, err)
	}
}

func (w *TranscriptWriter) enqueue(t store.Transcript) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	select {
	case w.queue <- t:
		return nil
	default:
		return errors.New("transcript queue full")
	}
}

// Close stops accepting transcripts and waits for queued ones to be
// written or ctx to end.
func (w *TranscriptWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *TranscriptWriter) run() {
	defer close(w.done)
	for t := range w.queue {
		// Detached from the request that produced t.
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.sink.InsertTranscript(ctx, &t)
		cancel()
		if err != nil {
			w.fail(t, err)
			continue
		}
		w.log.Debug().Str("user_id", t.UserID).Str("transcript_id", t.ID).Msg("transcript saved")
	}
}

func (w *TranscriptWriter) fail(t store.Transcript, err error) {
	w.log.Warn().Err(err).Str("user_id", t.UserID).Msg("saving AI transcript failed")
	if w.onError != nil {
		w.onError(t, err)
	}
	select {
	case w.errs <- fmt.Errorf("saving transcript for %s: %w", t.UserID, err):
	default:
	}
}
