// Package monitor reports system resource usage as log events alongside a
// running graph execution. The engine starts one reporter per run and
// guarantees it is cancelled and awaited when the run ends.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vk/nodeflow/internal/ctxlog"
	"github.com/vk/nodeflow/internal/events"
)

// DefaultInterval is the reporting period used when none is configured.
const DefaultInterval = 2 * time.Second

// Reporter periodically emits RAM/CPU usage to the event sink.
type Reporter struct {
	Interval time.Duration
}

// Run loops until ctx is cancelled, emitting one log event per interval.
// Sampling errors are logged and skipped; the loop never aborts on them.
func (r *Reporter) Run(ctx context.Context, sink events.Sink) {
	logger := ctxlog.FromContext(ctx)
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("System monitor stopped.")
			return
		case <-ticker.C:
			vm, err := mem.VirtualMemory()
			if err != nil {
				logger.Warn("Failed to sample memory usage.", "error", err)
				continue
			}
			percents, err := cpu.Percent(0, false)
			if err != nil || len(percents) == 0 {
				logger.Warn("Failed to sample CPU usage.", "error", err)
				continue
			}
			sink.Emit(events.Log(fmt.Sprintf("🖥️ [System] RAM: %.1f%% | CPU: %.1f%%", vm.UsedPercent, percents[0])))
		}
	}
}
