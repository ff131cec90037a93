package presence

import (
	"context"
	"time"
)

// Snapshot is a point-in-time aggregate over the live record set. It is
// recomputed on every request and never cached: Total always equals the sum
// of ByPath because both come from the same read pass.
type Snapshot struct {
	TS     int64          `json:"ts"`
	Total  int            `json:"total"`
	ByPath map[string]int `json:"byPath"`
}

// Aggregator derives snapshots from the store. If the store is unavailable
// it returns the failure as-is rather than fabricating a count; the caller
// owns the user-visible degradation policy.
type Aggregator struct {
	store   Store
	timeout time.Duration
}

func NewAggregator(store Store, timeout time.Duration) *Aggregator {
	return &Aggregator{store: store, timeout: timeout}
}

func (a *Aggregator) Snapshot(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	byPath, err := a.store.CountByPath(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	total := 0
	for _, n := range byPath {
		total += n
	}
	return Snapshot{
		TS:     time.Now().Unix(),
		Total:  total,
		ByPath: byPath,
	}, nil
}
