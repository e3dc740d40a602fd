package compassAuth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/careercompass/compassAuth/store"
)

var errBackendDown = errors.New("backend down")

// flakyBackend wraps a MemoryBackend with switchable failures.
type flakyBackend struct {
	*store.MemoryBackend
	failGet    atomic.Bool
	failSet    atomic.Bool
	failDelete atomic.Bool
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryBackend: store.NewMemoryBackend()}
}

func (f *flakyBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet.Load() {
		return "", false, errBackendDown
	}
	return f.MemoryBackend.Get(ctx, key)
}

func (f *flakyBackend) SetMany(ctx context.Context, entries map[string]string) error {
	if f.failSet.Load() {
		return errBackendDown
	}
	return f.MemoryBackend.SetMany(ctx, entries)
}

func (f *flakyBackend) DeleteMany(ctx context.Context, keys ...string) error {
	if f.failDelete.Load() {
		return errBackendDown
	}
	return f.MemoryBackend.DeleteMany(ctx, keys...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SimulatedLatency = 0
	return cfg
}

type testHarness struct {
	manager *Manager
	backend *flakyBackend
	store   *store.Store
	clock   *testClock
}

func newHarness(t *testing.T, configure ...func(*Builder)) *testHarness {
	t.Helper()
	return newHarnessOn(t, newFlakyBackend(), configure...)
}

func newHarnessOn(t *testing.T, backend *flakyBackend, configure ...func(*Builder)) *testHarness {
	t.Helper()

	clock := newTestClock()
	st := store.NewStore(backend, quietLogger())
	b := New().
		WithConfig(testConfig()).
		WithStore(st).
		WithLogger(quietLogger()).
		WithClock(clock.Now)
	for _, fn := range configure {
		fn(b)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)

	return &testHarness{manager: m, backend: backend, store: st, clock: clock}
}

// restored returns a harness whose Manager has already settled.
func restored(t *testing.T, configure ...func(*Builder)) *testHarness {
	t.Helper()
	h := newHarness(t, configure...)
	h.manager.Restore(context.Background())
	return h
}

func (h *testHarness) directory(t *testing.T) store.Directory {
	t.Helper()
	dir, err := h.store.LoadDirectory(context.Background())
	if err != nil {
		t.Fatalf("LoadDirectory failed: %v", err)
	}
	return dir
}

func (h *testHarness) persistedSession(t *testing.T) (store.SessionRecord, bool) {
	t.Helper()
	rec, ok, err := h.store.LoadSession(context.Background())
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	return rec, ok
}

func (h *testHarness) register(t *testing.T, email, password, name string) *RegisterResult {
	t.Helper()
	res, err := h.manager.Register(context.Background(), RegisterInput{Email: email, Password: password, Name: name})
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", email, err)
	}
	return res
}
