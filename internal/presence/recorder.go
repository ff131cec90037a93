package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Kind classifies a presence event from the browser.
type Kind string

const (
	KindLoad   Kind = "load"   // page opened
	KindBeat   Kind = "beat"   // periodic heartbeat while open
	KindUnload Kind = "unload" // page closed
)

// ParseKind validates a wire-format kind literal.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLoad, KindBeat, KindUnload:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidHit, s)
}

// Outcome reports how a hit was handled.
type Outcome int

const (
	// OutcomeRecorded means the store applied the mutation.
	OutcomeRecorded Outcome = iota
	// OutcomeDegraded means the store was unavailable; the event is
	// acknowledged but was not durably recorded.
	OutcomeDegraded
)

// Recorder converts presence events into store mutations. Store
// unavailability never propagates as a failure: presence is best-effort
// telemetry, and failing the browser's request would only cause retry
// storms for a non-critical feature.
type Recorder struct {
	store   Store
	ttl     time.Duration
	timeout time.Duration
	log     *slog.Logger
}

func NewRecorder(store Store, ttl, timeout time.Duration, log *slog.Logger) *Recorder {
	return &Recorder{store: store, ttl: ttl, timeout: timeout, log: log}
}

// Record applies one presence event. load and beat are deliberately
// identical: both reset the record's TTL to the full window. unload deletes
// the record immediately. A beat arriving after expiry or unload resurrects
// the record for a fresh window; last writer wins.
func (r *Recorder) Record(ctx context.Context, sessionID, path string, kind Kind) (Outcome, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("%w: empty sid", ErrInvalidHit)
	}
	if path == "" {
		return 0, fmt.Errorf("%w: empty path", ErrInvalidHit)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var err error
	switch kind {
	case KindLoad, KindBeat:
		err = r.store.Upsert(ctx, sessionID, path, r.ttl)
	case KindUnload:
		err = r.store.Delete(ctx, sessionID, path)
	}
	if err != nil {
		if IsUnavailable(err) {
			r.log.Warn("hit not durably recorded",
				"tag", "degraded", "kind", string(kind), "path", path, "error", err)
			return OutcomeDegraded, nil
		}
		return 0, err
	}
	return OutcomeRecorded, nil
}
