package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	ErrQueueFull = errors.New("event log queue full")
	ErrClosed    = errors.New("event log closed")
)

const defaultWriteTimeout = 5 * time.Second

type pendingEntry struct {
	callID    string
	eventName string
	payload   json.RawMessage
}

// Buffered hands events to a single background writer so Record never waits
// on the underlying store. Events are dropped when the queue is full.
type Buffered struct {
	next         Recorder
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan pendingEntry
	done   chan struct{}

	dropped metric.Int64Counter
	failed  metric.Int64Counter
}

func NewBuffered(next Recorder, size int) *Buffered {
	if size <= 0 {
		size = 256
	}
	b := &Buffered{
		next:         next,
		writeTimeout: defaultWriteTimeout,
		queue:        make(chan pendingEntry, size),
		done:         make(chan struct{}),
	}
	b.dropped, _ = meter.Int64Counter("eventlog.dropped", metric.WithDescription("Events dropped because the queue was full"))
	b.failed, _ = meter.Int64Counter("eventlog.failed", metric.WithDescription("Events the store rejected"))

	go b.run()
	return b
}

func (b *Buffered) Record(ctx context.Context, callID, eventName string, payload json.RawMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- pendingEntry{callID: callID, eventName: eventName, payload: payload}:
		return nil
	default:
		b.dropped.Add(ctx, 1)
		return ErrQueueFull
	}
}

func (b *Buffered) run() {
	defer close(b.done)
	for entry := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), b.writeTimeout)
		if err := b.next.Record(ctx, entry.callID, entry.eventName, entry.payload); err != nil {
			b.failed.Add(ctx, 1)
			logger.WarnContext(ctx, "failed to record event", "call_sid", entry.callID, "event", entry.eventName, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (b *Buffered) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
