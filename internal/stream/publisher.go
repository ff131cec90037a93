// Package stream drives the per-subscriber push loops for the online-count
// feed. Each subscriber owns one loop; a slow or dead subscriber never
// affects another's cadence.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tabpulse/backend/internal/metrics"
	"github.com/tabpulse/backend/internal/presence"
)

// Sink delivers one serialized snapshot to a subscriber. A non-nil error
// means the connection is gone and the loop must stop.
type Sink func(data []byte) error

// Snapshotter is the aggregator dependency, narrowed for tests.
type Snapshotter interface {
	Snapshot(ctx context.Context) (presence.Snapshot, error)
}

// Publisher runs one push loop per subscriber: emit immediately on
// subscribe, then on every cadence tick until the subscriber's context is
// canceled or a write fails. When the store is unavailable the tick is
// skipped rather than fabricating a count; the first suppressed tick of an
// outage logs at Warn, the rest at Debug.
type Publisher struct {
	agg     Snapshotter
	cadence time.Duration
	log     *slog.Logger
}

func New(agg Snapshotter, cadence time.Duration, log *slog.Logger) *Publisher {
	return &Publisher{agg: agg, cadence: cadence, log: log}
}

// Run blocks until the subscriber disconnects. Returns nil on context
// cancellation (a normal close); returns the sink's error if a write fails.
func (p *Publisher) Run(ctx context.Context, subscriberID string, sink Sink) error {
	metrics.StreamSubscribers.Inc()
	defer metrics.StreamSubscribers.Dec()

	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()

	suppressed := false
	emit := func() error {
		snap, err := p.agg.Snapshot(ctx)
		if err != nil {
			if presence.IsUnavailable(err) {
				metrics.SuppressedTicksTotal.Inc()
				if !suppressed {
					suppressed = true
					p.log.Warn("online stream tick suppressed",
						"tag", "suppressed", "subscriber", subscriberID, "error", err)
				} else {
					p.log.Debug("online stream tick suppressed",
						"subscriber", subscriberID, "error", err)
				}
				return nil
			}
			if ctx.Err() != nil {
				// Subscriber is gone; the select below ends the loop.
				return nil
			}
			p.log.Error("snapshot failed", "subscriber", subscriberID, "error", err)
			return nil
		}
		if suppressed {
			suppressed = false
			p.log.Info("online stream resumed", "subscriber", subscriberID)
		}

		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		return sink(data)
	}

	// First event goes out right away so the client is not staring at a
	// blank dashboard for a full cadence period.
	if err := emit(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emit(); err != nil {
				return err
			}
		}
	}
}
