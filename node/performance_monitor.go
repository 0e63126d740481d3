package node

import (
	"runtime"
	"time"

	"github.com/annchain/keymanager/common/goroutine"
	"github.com/annchain/keymanager/keymanager"
	"github.com/sirupsen/logrus"
)

type PerformanceReporter interface {
	Name() string
	GetBenchmarks() map[string]interface{}
}

// PerformanceMonitor periodically logs what every registered reporter exposes.
type PerformanceMonitor struct {
	Interval  time.Duration
	reporters []PerformanceReporter
	quit      chan struct{}
}

func NewPerformanceMonitor(interval time.Duration) *PerformanceMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PerformanceMonitor{
		Interval: interval,
		quit:     make(chan struct{}),
	}
}

func (p *PerformanceMonitor) Register(holder PerformanceReporter) {
	p.reporters = append(p.reporters, holder)
}

func (p *PerformanceMonitor) collect() logrus.Fields {
	fields := logrus.Fields{}
	for _, r := range p.reporters {
		fields[r.Name()] = r.GetBenchmarks()
	}
	// add additional fields
	fields["goroutines"] = runtime.NumGoroutine()
	fields["managed_goroutines"] = goroutine.Running()
	return fields
}

func (p *PerformanceMonitor) Start() {
	goroutine.New(func() {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logrus.WithFields(p.collect()).Info("Performance")
			case <-p.quit:
				return
			}
		}
	})
}

func (p *PerformanceMonitor) Stop() {
	close(p.quit)
}

func (PerformanceMonitor) Name() string {
	return "PerformanceMonitor"
}

// registryReporter exposes registry counters to the monitor.
type registryReporter struct {
	registry *keymanager.Registry
}

func (r registryReporter) Name() string {
	return "Registry"
}

func (r registryReporter) GetBenchmarks() map[string]interface{} {
	status := r.registry.Status()
	return map[string]interface{}{
		"next":     status.NextId,
		"oldest":   status.OldestStoredId,
		"retained": status.Retained,
		"events":   status.LastEventSeq,
	}
}
