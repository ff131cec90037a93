// Package presence tracks which browser tabs are currently viewing which
// pages. A presence record is the pair (session, path) and lives only as
// long as the tab keeps refreshing it within the TTL window; absence of a
// record is the only expiry signal.
package presence

import (
	"context"
	"time"
)

// Store holds the ground truth of who is currently present. Implementations
// must expire records on their own once the TTL elapses and must never
// return an expired identity from a count.
type Store interface {
	// Upsert creates or refreshes the record for (sessionID, path),
	// resetting its TTL to the full window. Idempotent; last writer wins.
	Upsert(ctx context.Context, sessionID, path string, ttl time.Duration) error

	// Delete removes the record immediately, regardless of remaining TTL.
	// Deleting a missing record is not an error.
	Delete(ctx context.Context, sessionID, path string) error

	// CountAll returns the number of live records.
	CountAll(ctx context.Context) (int, error)

	// CountByPath returns live record counts keyed by path. Paths with no
	// live records do not appear.
	CountByPath(ctx context.Context) (map[string]int, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
