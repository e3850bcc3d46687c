package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(sink, 16, true)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, Event{EventType: "token_issue", UserID: "u-1"})
	}
	d.Close()

	got := 0
	for {
		select {
		case <-sink.Events():
			got++
		default:
			if got != 5 {
				t.Fatalf("delivered = %d, want 5", got)
			}
			return
		}
	}
}

func TestNilDispatcherIsInert(t *testing.T) {
	var d *Dispatcher

	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(blockingSink{release: block}, 1, true)
	defer func() {
		close(block)
		d.Close()
	}()

	ctx := context.Background()
	// The first event can occupy the worker, the next fills the single
	// buffer slot, and the rest must spill.
	for i := 0; i < 10; i++ {
		d.Emit(ctx, Event{EventType: "x"})
	}

	if d.Dropped() == 0 {
		t.Fatal("no events dropped with a full buffer")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherEmitAfterCloseIsNoOp(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(sink, 4, true)
	d.Close()
	d.Close() // idempotent
	d.Emit(context.Background(), Event{EventType: "late"})

	select {
	case ev := <-sink.Events():
		t.Fatalf("event delivered after close: %+v", ev)
	default:
	}
}

func TestDispatcherBlockingEmitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	d := NewDispatcher(blockingSink{release: block}, 1, false)
	defer func() {
		close(block)
		d.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Fill the worker and the buffer, then the next Emit must return
	// once the context expires instead of hanging.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			d.Emit(ctx, Event{EventType: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("blocking Emit ignored context cancellation")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{EventType: "logout", UserID: "u-9", Success: true})
	sink.Emit(context.Background(), Event{EventType: "token_issue", UserID: "u-9", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("line not JSON: %v", err)
	}
	if ev.EventType != "logout" || ev.UserID != "u-9" || !ev.Success {
		t.Fatalf("decoded event = %+v", ev)
	}
}
