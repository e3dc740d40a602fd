package compassAuth

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// AuditStats counts what happened to audit events after the Manager emitted
// them.
type AuditStats struct {
	Delivered  uint64
	Dropped    uint64
	SinkPanics uint64
}

// auditTrail hands session audit events to one sink from a single worker, so
// a slow sink never holds up a login.
type auditTrail struct {
	sink       AuditSink
	dropIfFull bool
	logger     *slog.Logger

	queue   chan AuditEvent
	stop    chan struct{}
	stopped chan struct{}

	// Emit holds the read lock while queueing and Close takes the write lock
	// before stopping, so every accepted event is queued before the drain.
	mu     sync.RWMutex
	closed bool

	delivered  atomic.Uint64
	dropped    atomic.Uint64
	sinkPanics atomic.Uint64
}

// newAuditTrail returns nil when audit is disabled; a nil trail accepts and
// discards everything.
func newAuditTrail(cfg AuditConfig, sink AuditSink, logger *slog.Logger) *auditTrail {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &auditTrail{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		logger:     logger,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go t.work()
	return t
}

func (t *auditTrail) work() {
	defer close(t.stopped)

	ctx := context.Background()
	for {
		select {
		case event := <-t.queue:
			t.deliver(ctx, event)
		case <-t.stop:
			// No Emit can be in flight once stop is closed.
			for {
				select {
				case event := <-t.queue:
					t.deliver(ctx, event)
				default:
					return
				}
			}
		}
	}
}

func (t *auditTrail) deliver(ctx context.Context, event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.sinkPanics.Add(1)
			t.logger.Error("audit sink panicked; event lost",
				"event_type", event.EventType,
				"event_id", event.ID,
				"panic", r,
			)
		}
	}()
	t.sink.Emit(ctx, event)
	t.delivered.Add(1)
}

// Emit queues event. With dropIfFull a full queue drops and counts the event;
// otherwise Emit waits for room or for ctx.
func (t *auditTrail) Emit(ctx context.Context, event AuditEvent) {
	if t == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}

	if t.dropIfFull {
		select {
		case t.queue <- event:
		default:
			t.dropped.Add(1)
		}
		return
	}

	select {
	case t.queue <- event:
	case <-ctx.Done():
		t.dropped.Add(1)
	}
}

// Close stops intake, delivers everything already queued and waits for the
// worker. Later Emits are counted as dropped.
func (t *auditTrail) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.stop)
	t.mu.Unlock()

	<-t.stopped
}

func (t *auditTrail) Stats() AuditStats {
	if t == nil {
		return AuditStats{}
	}
	return AuditStats{
		Delivered:  t.delivered.Load(),
		Dropped:    t.dropped.Load(),
		SinkPanics: t.sinkPanics.Load(),
	}
}
