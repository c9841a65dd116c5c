package services

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/hackathon/churninsight-go/internal/churnapi"
)

// ServiceState is one of the two independent indicator states derived from
// a health poll.
type ServiceState int

const (
	// StateUnknown means no successful poll has classified the service yet.
	StateUnknown ServiceState = iota
	StateUp
	StateDown
)

// String names the state for presentation.
func (s ServiceState) String() string {
	switch s {
	case StateUp:
		return "OK"
	case StateDown:
		return "OFF"
	default:
		return "?"
	}
}

// HealthSnapshot is the reduced {backend, ml} status pair plus poll
// metadata.
type HealthSnapshot struct {
	Backend   ServiceState
	ML        ServiceState
	CheckedAt time.Time
}

// HealthMonitor polls the backend health endpoint on a fixed interval,
// fully decoupled from the pager and the orchestrator: its failures never
// affect prediction submission or history state.
type HealthMonitor struct {
	api      churnapi.API
	logger   *logrus.Logger
	interval time.Duration

	mu       sync.RWMutex
	snapshot HealthSnapshot

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewHealthMonitor creates the poller. It does not start polling.
func NewHealthMonitor(api churnapi.API, logger *logrus.Logger, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		api:      api,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start polls immediately and then on every tick until Stop is called or
// the context ends.
func (m *HealthMonitor) Start(ctx context.Context) {
	go func() {
		defer close(m.done)

		m.Poll(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Poll(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the poll loop and waits for it to exit.
func (m *HealthMonitor) Stop() {
	m.once.Do(func() { close(m.stop) })
	<-m.done
}

// Poll performs one health check and updates the snapshot. A transport
// failure marks the backend down and leaves the ML state unknown, since
// nothing was learned about the model service itself.
func (m *HealthMonitor) Poll(ctx context.Context) HealthSnapshot {
	snapshot := HealthSnapshot{CheckedAt: time.Now()}

	health, err := m.api.Health(ctx)
	if err != nil {
		snapshot.Backend = StateDown
		snapshot.ML = StateUnknown
		m.logger.WithError(err).Debug("Health poll failed")
	} else {
		snapshot.Backend = StateDown
		if health.BackendUp() {
			snapshot.Backend = StateUp
		}
		snapshot.ML = StateDown
		if health.MLUp() {
			snapshot.ML = StateUp
		}
	}

	m.mu.Lock()
	m.snapshot = snapshot
	m.mu.Unlock()

	return snapshot
}

// Status returns the latest snapshot.
func (m *HealthMonitor) Status() HealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ResourceStats is a local process environment snapshot shown alongside
// the health indicators in the status view.
type ResourceStats struct {
	CPUPercent    float64
	MemoryPercent float64
	MemoryUsedMB  uint64
}

// ResourceSnapshot samples host CPU and memory usage. Failures degrade to
// zero values rather than blocking the status view.
func ResourceSnapshot(ctx context.Context) ResourceStats {
	var stats ResourceStats

	if percents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = memInfo.UsedPercent
		stats.MemoryUsedMB = memInfo.Used / (1024 * 1024)
	}

	return stats
}
