package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
	"github.com/fruitsalade/breadbox/pkg/retry"
)

// Writer coalesces snapshot writes to a Backend. Each Enqueue replaces any
// bytes still pending for the same key, and a background loop flushes dirty
// keys once per interval, so a burst of mutations costs one backend write
// per key. An interval of zero writes through synchronously.
//
// Write failures are logged and retried on the next flush; they never
// propagate to mutators. The in-memory state stays authoritative.
type Writer struct {
	backend  Backend
	interval time.Duration
	retryCfg retry.Config

	mu      sync.Mutex
	pending map[string][]byte

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewWriter creates a Writer for the given backend and flush interval.
func NewWriter(backend Backend, interval time.Duration, retryCfg retry.Config) *Writer {
	return &Writer{
		backend:  backend,
		interval: interval,
		retryCfg: retryCfg,
		pending:  make(map[string][]byte),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the flush loop. In write-through mode it is a no-op.
func (w *Writer) Start() {
	if w.interval <= 0 {
		return
	}
	w.started = true
	go w.run()
}

func (w *Writer) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Flush(context.Background())
		case <-w.stop:
			close(w.done)
			return
		}
	}
}

// Enqueue schedules data to be written under key, replacing any bytes
// already pending for that key.
func (w *Writer) Enqueue(key string, data []byte) {
	if w.interval <= 0 {
		w.write(context.Background(), key, data)
		return
	}

	w.mu.Lock()
	w.pending[key] = data
	n := len(w.pending)
	w.mu.Unlock()
	metrics.SetPendingWrites(n)
}

// Flush writes all pending snapshots immediately. Keys whose write fails
// are requeued for the next flush unless newer bytes arrived meanwhile.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string][]byte)
	w.mu.Unlock()

	var firstErr error
	for key, data := range batch {
		if err := w.write(ctx, key, data); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			w.requeue(key, data)
		}
	}

	w.mu.Lock()
	n := len(w.pending)
	w.mu.Unlock()
	metrics.SetPendingWrites(n)

	return firstErr
}

func (w *Writer) requeue(key string, data []byte) {
	w.mu.Lock()
	if _, ok := w.pending[key]; !ok {
		w.pending[key] = data
	}
	w.mu.Unlock()
}

func (w *Writer) write(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := retry.Do(ctx, w.retryCfg, func() error {
		if err := w.backend.Store(ctx, key, data); err != nil {
			return retry.Retryable(err)
		}
		return nil
	})
	metrics.RecordPersistWrite(w.backend.Type(), time.Since(start), err == nil)

	if err != nil {
		logging.Error("snapshot write failed",
			zap.String("key", key),
			zap.String("backend", w.backend.Type()),
			zap.Error(err))
		return err
	}

	logging.Debug("snapshot written",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return nil
}

// Pending returns the number of keys waiting for the next flush.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Close stops the flush loop and drains any pending writes.
func (w *Writer) Close(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return w.Flush(ctx)
}
