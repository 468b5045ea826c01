package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fruitsalade/breadbox/pkg/retry"
)

// mockBackend counts writes and can be told to fail the next N stores.
type mockBackend struct {
	mu       sync.Mutex
	objects  map[string][]byte
	writes   int
	failNext int
}

func newMockBackend() *mockBackend {
	return &mockBackend{objects: make(map[string][]byte)}
}

func (m *mockBackend) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
	}
	return data, nil
}

func (m *mockBackend) Store(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failNext > 0 {
		m.failNext--
		return errors.New("backend unavailable")
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *mockBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *mockBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockBackend) Type() string { return "mock" }
func (m *mockBackend) Close() error { return nil }

func (m *mockBackend) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *mockBackend) object(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key]
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestWriterCoalescesSameKey(t *testing.T) {
	m := newMockBackend()
	w := NewWriter(m, time.Hour, fastRetry())

	w.Enqueue("file-manager", []byte(`{"v":1}`))
	w.Enqueue("file-manager", []byte(`{"v":2}`))
	w.Enqueue("file-manager", []byte(`{"v":3}`))

	if got := w.Pending(); got != 1 {
		t.Fatalf("Pending = %d, want 1", got)
	}

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := m.writeCount(); got != 1 {
		t.Errorf("backend writes = %d, want 1", got)
	}
	if got := m.object("file-manager"); !bytes.Equal(got, []byte(`{"v":3}`)) {
		t.Errorf("stored = %s, want latest bytes", got)
	}
	if got := w.Pending(); got != 0 {
		t.Errorf("Pending after flush = %d, want 0", got)
	}
}

func TestWriterFlushesEachKey(t *testing.T) {
	m := newMockBackend()
	w := NewWriter(m, time.Hour, fastRetry())

	w.Enqueue("file-manager", []byte(`{}`))
	w.Enqueue("settings", []byte(`{}`))
	w.Enqueue("downloads", []byte(`{}`))

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := m.writeCount(); got != 3 {
		t.Errorf("backend writes = %d, want 3", got)
	}
}

func TestWriterWriteThrough(t *testing.T) {
	m := newMockBackend()
	w := NewWriter(m, 0, fastRetry())

	w.Enqueue("file-manager", []byte(`{"v":1}`))

	if got := m.writeCount(); got != 1 {
		t.Errorf("backend writes = %d, want 1 immediate write", got)
	}
	if got := w.Pending(); got != 0 {
		t.Errorf("Pending = %d, want 0 in write-through mode", got)
	}
}

func TestWriterRetriesTransientFailure(t *testing.T) {
	m := newMockBackend()
	m.failNext = 1
	w := NewWriter(m, time.Hour, fastRetry())

	w.Enqueue("file-manager", []byte(`{"v":1}`))
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after transient failure: %v", err)
	}

	if got := m.writeCount(); got != 2 {
		t.Errorf("backend writes = %d, want 2 (one failed, one retried)", got)
	}
	if got := m.object("file-manager"); got == nil {
		t.Error("snapshot missing after retry")
	}
}

func TestWriterRequeuesExhaustedWrites(t *testing.T) {
	m := newMockBackend()
	m.failNext = 10
	w := NewWriter(m, time.Hour, fastRetry())

	w.Enqueue("file-manager", []byte(`{"v":1}`))
	if err := w.Flush(context.Background()); err == nil {
		t.Fatal("Flush with failing backend: want error, got nil")
	}
	if got := w.Pending(); got != 1 {
		t.Fatalf("Pending after failed flush = %d, want 1 requeued key", got)
	}

	m.mu.Lock()
	m.failNext = 0
	m.mu.Unlock()

	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after recovery: %v", err)
	}
	if got := m.object("file-manager"); got == nil {
		t.Error("snapshot missing after recovered flush")
	}
}

func TestWriterCloseDrainsPending(t *testing.T) {
	m := newMockBackend()
	w := NewWriter(m, time.Hour, fastRetry())
	w.Start()

	w.Enqueue("file-manager", []byte(`{"v":1}`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := m.object("file-manager"); got == nil {
		t.Error("snapshot not drained on close")
	}
}
