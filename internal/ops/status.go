// Package ops reports operational facts about the running process for the
// /statusz endpoint.
package ops

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

type Status struct {
	PID            int     `json:"pid"`
	UptimeSeconds  int64   `json:"uptimeSeconds"`
	Goroutines     int     `json:"goroutines"`
	CPUPercent     float64 `json:"cpuPercent"`
	MemoryRSSBytes uint64  `json:"memoryRssBytes"`
	Subscribers    int64   `json:"subscribers"`
}

type Collector struct {
	proc    *process.Process
	started time.Time
}

func NewCollector() (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{proc: proc, started: time.Now()}, nil
}

// Status gathers a point-in-time snapshot. Process stats that cannot be
// read (unsupported platform, procfs hiccup) are left zero rather than
// failing the whole status.
func (c *Collector) Status(ctx context.Context, subscribers int64) Status {
	st := Status{
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(c.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Subscribers:   subscribers,
	}
	if cpu, err := c.proc.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = cpu
	}
	if mem, err := c.proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		st.MemoryRSSBytes = mem.RSS
	}
	return st
}
