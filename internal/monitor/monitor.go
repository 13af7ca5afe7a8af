// Package monitor samples process and Go runtime state into the registry so
// the exporter's own resource usage appears on the scrape.
package monitor

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/chittycan/gateway-exporter/internal/metrics"
)

// Self-metric family names.
const (
	uptimeName     = "chitty_exporter_uptime_seconds"
	cpuPercentName = "process_cpu_percent"
	rssName        = "process_resident_memory_bytes"
	goroutinesName = "go_goroutines"
	heapAllocName  = "go_memstats_heap_alloc_bytes"
	gcCyclesName   = "go_gc_cycles_total"
)

// Monitor periodically records process resource gauges.
type Monitor struct {
	interval  time.Duration
	registry  *metrics.Registry
	proc      *process.Process
	startTime time.Time
	wg        sync.WaitGroup
}

// New creates a monitor recording into the given registry. Returns nil when
// the process handle cannot be obtained; the exporter runs without
// self-metrics in that case.
func New(interval time.Duration, registry *metrics.Registry) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Error("failed to get process handle", "error", err)
		return nil
	}

	registry.RegisterGauge(uptimeName, "Exporter uptime in seconds")
	registry.RegisterGauge(cpuPercentName, "Process CPU usage percent")
	registry.RegisterGauge(rssName, "Process resident memory in bytes")
	registry.RegisterGauge(goroutinesName, "Number of goroutines that currently exist")
	registry.RegisterGauge(heapAllocName, "Number of heap bytes allocated and still in use")
	registry.RegisterGauge(gcCyclesName, "Total number of completed GC cycles")

	return &Monitor{
		interval:  interval,
		registry:  registry,
		proc:      proc,
		startTime: time.Now(),
	}
}

// Run starts the collection loop in a background goroutine. Collects once
// immediately, then on every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.wg.Go(func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.collect()

		for {
			select {
			case <-ctx.Done():
				slog.Info("monitor shutdown complete")
				return
			case <-ticker.C:
				m.collect()
			}
		}
	})
}

// Wait blocks until the monitor goroutine exits.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// collect samples process and runtime state into the registry.
func (m *Monitor) collect() {
	_ = m.registry.SetGauge(uptimeName, nil, time.Since(m.startTime).Seconds())

	if cpu, err := m.proc.CPUPercent(); err == nil {
		_ = m.registry.SetGauge(cpuPercentName, nil, cpu)
	} else {
		slog.Warn("failed to get CPU percent", "error", err)
	}

	if mem, err := m.proc.MemoryInfo(); err == nil {
		_ = m.registry.SetGauge(rssName, nil, float64(mem.RSS))
	} else {
		slog.Warn("failed to get memory info", "error", err)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	_ = m.registry.SetGauge(goroutinesName, nil, float64(runtime.NumGoroutine()))
	_ = m.registry.SetGauge(heapAllocName, nil, float64(ms.HeapAlloc))
	_ = m.registry.SetGauge(gcCyclesName, nil, float64(ms.NumGC))
}
