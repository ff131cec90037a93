package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tabpulse/backend/internal/presence"
)

type fakeAggregator struct {
	calls       atomic.Int64
	failThrough int64 // snapshot calls <= failThrough return unavailable
}

func (f *fakeAggregator) Snapshot(context.Context) (presence.Snapshot, error) {
	n := f.calls.Add(1)
	if n <= f.failThrough {
		return presence.Snapshot{}, &presence.UnavailableError{Op: "count", Cause: errors.New("down")}
	}
	return presence.Snapshot{TS: n, Total: 2, ByPath: map[string]int{"/home": 2}}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collectSink(events chan<- []byte) Sink {
	return func(data []byte) error {
		events <- data
		return nil
	}
}

func TestPublisherEmitsImmediately(t *testing.T) {
	p := New(&fakeAggregator{}, time.Second, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan []byte, 16)
	go p.Run(ctx, "sub", collectSink(events))

	select {
	case data := <-events:
		var snap presence.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("first event not valid JSON: %v", err)
		}
		if snap.Total != 2 {
			t.Errorf("first event total = %d, want 2", snap.Total)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("no event within half a cadence of subscribing")
	}
}

func TestPublisherEmitsOnCadence(t *testing.T) {
	p := New(&fakeAggregator{}, 20*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan []byte, 64)
	go p.Run(ctx, "sub", collectSink(events))

	deadline := time.After(2 * time.Second)
	for i := 0; i < 4; i++ {
		select {
		case <-events:
		case <-deadline:
			t.Fatalf("only %d events before deadline, want 4", i)
		}
	}
}

func TestPublisherStopsOnCancel(t *testing.T) {
	p := New(&fakeAggregator{}, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan []byte, 64)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, "sub", collectSink(events)) }()

	<-events
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() after cancel = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}

func TestPublisherStopsOnSinkError(t *testing.T) {
	p := New(&fakeAggregator{}, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wantErr := errors.New("broken pipe")
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, "sub", func([]byte) error { return wantErr })
	}()

	select {
	case err := <-done:
		if !errors.Is(err, wantErr) {
			t.Errorf("Run() = %v, want sink error", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after sink failure")
	}
}

func TestPublisherSkipsTicksWhileUnavailable(t *testing.T) {
	// First three snapshots fail; the loop must keep ticking without
	// emitting, then resume with real data.
	agg := &fakeAggregator{failThrough: 3}
	p := New(agg, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan []byte, 64)
	go p.Run(ctx, "sub", collectSink(events))

	select {
	case data := <-events:
		var snap presence.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("event not valid JSON: %v", err)
		}
		// The first emitted event must be the first healthy snapshot,
		// not a fabricated zero for a suppressed tick.
		if snap.Total != 2 {
			t.Errorf("first emitted total = %d, want 2", snap.Total)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream never resumed after outage")
	}

	if agg.calls.Load() < 4 {
		t.Errorf("aggregator polled %d times, want >= 4 (loop must survive the outage)", agg.calls.Load())
	}
}
