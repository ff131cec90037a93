// Package mock synthesizes presence traffic for local development, so the
// dashboard shows movement without any real browsers attached.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tabpulse/backend/internal/presence"
)

var mockPaths = []string{"/", "/pricing", "/docs", "/docs/quickstart", "/blog", "/about"}

type Generator struct {
	recorder *presence.Recorder
	log      *slog.Logger

	// Tabs is how many fake tabs to keep alive at once.
	Tabs int
	// Beat is the heartbeat interval for each fake tab.
	Beat time.Duration
	// Lifetime bounds how long a fake tab stays on a page before it
	// unloads and reopens somewhere else.
	Lifetime time.Duration
}

func NewGenerator(recorder *presence.Recorder, log *slog.Logger) *Generator {
	return &Generator{
		recorder: recorder,
		log:      log,
		Tabs:     12,
		Beat:     10 * time.Second,
		Lifetime: time.Minute,
	}
}

// Start runs one goroutine per fake tab until ctx is canceled.
func (g *Generator) Start(ctx context.Context) {
	g.log.Info("mock traffic generator started", "tabs", g.Tabs)
	for i := 0; i < g.Tabs; i++ {
		go g.runTab(ctx, fmt.Sprintf("mock-%d", i))
	}
}

// runTab cycles: pick a page, load, heartbeat for a randomized lifetime,
// unload, repeat. Some tabs "crash" instead of unloading so TTL expiry
// gets exercised too.
func (g *Generator) runTab(ctx context.Context, sid string) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(len(sid))))
	for {
		path := mockPaths[rng.Intn(len(mockPaths))]
		g.hit(ctx, sid, path, presence.KindLoad)

		lifetime := g.Lifetime/2 + time.Duration(rng.Int63n(int64(g.Lifetime)))
		pageDone := time.After(lifetime)
		beat := time.NewTicker(g.Beat)

	page:
		for {
			select {
			case <-ctx.Done():
				beat.Stop()
				return
			case <-beat.C:
				g.hit(ctx, sid, path, presence.KindBeat)
			case <-pageDone:
				beat.Stop()
				if rng.Intn(5) > 0 {
					g.hit(ctx, sid, path, presence.KindUnload)
				}
				break page
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(rng.Int63n(int64(g.Beat)))):
		}
	}
}

func (g *Generator) hit(ctx context.Context, sid, path string, kind presence.Kind) {
	if ctx.Err() != nil {
		return
	}
	if _, err := g.recorder.Record(ctx, sid, path, kind); err != nil {
		g.log.Warn("mock hit rejected", "sid", sid, "error", err)
	}
}
