package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Dispatcher decouples audit emission from sink latency: events are
// queued and forwarded by a single worker goroutine. With dropIfFull
// set, Emit never blocks the request path; overflow is counted, not
// delivered.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	events  chan Event
	stopped chan struct{}
	drained chan struct{}

	dropped atomic.Uint64
	once    sync.Once
}

// NewDispatcher starts the forwarding worker. A nil sink discards
// events; buffer is clamped to at least one slot.
func NewDispatcher(sink Sink, buffer int, dropIfFull bool) *Dispatcher {
	if sink == nil {
		sink = NoOpSink{}
	}
	if buffer < 1 {
		buffer = 1
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: dropIfFull,
		events:     make(chan Event, buffer),
		stopped:    make(chan struct{}),
		drained:    make(chan struct{}),
	}
	go d.forward()
	return d
}

func (d *Dispatcher) forward() {
	defer close(d.drained)
	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.stopped:
			d.flush()
			return
		}
	}
}

// flush empties whatever is buffered at shutdown. Emit refuses new
// events once stopped is closed, so this terminates.
func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit queues an event for delivery. On a nil or closed dispatcher it
// is a no-op. Without dropIfFull, a full buffer blocks until space
// frees, the context ends, or the dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	select {
	case <-d.stopped:
		return
	default:
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.stopped:
	}
}

// Close stops intake, delivers everything still buffered, and waits for
// the worker to exit. Safe to call more than once and on nil.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		close(d.stopped)
		<-d.drained
	})
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
