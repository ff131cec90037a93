package presence

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives a MemoryStore's notion of now.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore()
	s.now = clock.now
	return s, clock
}

func countAll(t *testing.T, s Store) int {
	t.Helper()
	n, err := s.CountAll(context.Background())
	if err != nil {
		t.Fatalf("CountAll() error: %v", err)
	}
	return n
}

func TestMemoryUpsertAndCount(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 90*time.Second)
	s.Upsert(ctx, "b", "/home", 90*time.Second)
	s.Upsert(ctx, "c", "/about", 90*time.Second)

	if got := countAll(t, s); got != 3 {
		t.Errorf("CountAll() = %d, want 3", got)
	}

	byPath, err := s.CountByPath(ctx)
	if err != nil {
		t.Fatalf("CountByPath() error: %v", err)
	}
	if byPath["/home"] != 2 || byPath["/about"] != 1 {
		t.Errorf("CountByPath() = %v", byPath)
	}
}

func TestMemoryUpsertIdempotent(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 90*time.Second)
	s.Upsert(ctx, "a", "/home", 90*time.Second)

	if got := countAll(t, s); got != 1 {
		t.Errorf("CountAll() after double upsert = %d, want 1", got)
	}
}

func TestMemorySameSessionDifferentPaths(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 90*time.Second)
	s.Upsert(ctx, "a", "/about", 90*time.Second)

	if got := countAll(t, s); got != 2 {
		t.Errorf("CountAll() = %d, want 2 (one per tab)", got)
	}
}

func TestMemoryDeleteRemovesImmediately(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 90*time.Second)
	s.Delete(ctx, "a", "/home")

	if got := countAll(t, s); got != 0 {
		t.Errorf("CountAll() after delete = %d, want 0", got)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	// load at t=0, beat at t=80, TTL 90s: present at t=150 (expires at
	// 170), absent at t=200.
	s, clock := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "A", "/home", 90*time.Second)

	clock.advance(80 * time.Second)
	s.Upsert(ctx, "A", "/home", 90*time.Second)

	clock.advance(70 * time.Second) // t=150
	if got := countAll(t, s); got != 1 {
		t.Errorf("CountAll() at t=150 = %d, want 1", got)
	}

	clock.advance(50 * time.Second) // t=200
	if got := countAll(t, s); got != 0 {
		t.Errorf("CountAll() at t=200 = %d, want 0", got)
	}
}

func TestMemoryBeatSlidesExpiryNotAdditive(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 90*time.Second)
	clock.advance(89 * time.Second)
	s.Upsert(ctx, "a", "/home", 90*time.Second)

	// The refresh resets to a full window from the beat, not 90+90 from
	// the load.
	clock.advance(91 * time.Second)
	if got := countAll(t, s); got != 0 {
		t.Errorf("CountAll() after window from last beat = %d, want 0", got)
	}
}

func TestMemoryLateBeatResurrects(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 90*time.Second)
	clock.advance(200 * time.Second)
	if got := countAll(t, s); got != 0 {
		t.Fatalf("record should have expired, CountAll() = %d", got)
	}

	// Last writer wins: a late beat brings the record back for a full
	// window.
	s.Upsert(ctx, "a", "/home", 90*time.Second)
	if got := countAll(t, s); got != 1 {
		t.Errorf("CountAll() after late beat = %d, want 1", got)
	}
}

func TestMemoryCountByPathExcludesExpired(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	s.Upsert(ctx, "a", "/home", 30*time.Second)
	s.Upsert(ctx, "b", "/about", 90*time.Second)
	clock.advance(60 * time.Second)

	byPath, err := s.CountByPath(ctx)
	if err != nil {
		t.Fatalf("CountByPath() error: %v", err)
	}
	if _, ok := byPath["/home"]; ok {
		t.Error("CountByPath() includes expired path /home")
	}
	if byPath["/about"] != 1 {
		t.Errorf("byPath[/about] = %d, want 1", byPath["/about"])
	}
}
