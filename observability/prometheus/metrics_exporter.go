// Package prometheus adapts activepool's core.Metrics interface to
// Prometheus collectors, and offers a periodic poller that samples a
// Pool's read-only views (worker count, backlog depth, running state)
// into gauges without the core engine importing Prometheus directly.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/flint-systems/activepool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors: one
// histogram pair for per-item wall/cpu duration, a counter for terminal
// outcomes, gauges for live backlog depth and worker count, and counters
// for sizing-controller grow/shrink events and rejected admissions. Each
// concern gets its own collector, labeled by pool ID and (where relevant)
// outcome, so one exporter can serve any number of pools registered
// against it.
type MetricsExporter struct {
	itemWallSeconds  *prom.HistogramVec
	itemCPUSeconds   *prom.HistogramVec
	itemOutcomeTotal *prom.CounterVec
	backlogDepth     *prom.GaugeVec
	workerCount      *prom.GaugeVec
	growTotal        *prom.CounterVec
	shrinkTotal      *prom.CounterVec
	rejectedTotal    *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors
// implementing core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "activepool"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	wallVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "item_wall_duration_seconds",
		Help:      "Wall-clock duration of an executed item.",
		Buckets:   buckets,
	}, []string{"pool"})
	cpuVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "item_cpu_duration_seconds",
		Help:      "CPU duration of an executed item, where the host supplies it.",
		Buckets:   buckets,
	}, []string{"pool"})
	outcomeVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "item_outcome_total",
		Help:      "Total items reaching each terminal outcome.",
	}, []string{"pool", "outcome"})
	backlogVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "backlog_depth",
		Help:      "Current number of pending items.",
	}, []string{"pool"})
	workerVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_count",
		Help:      "Current number of live worker goroutines.",
	}, []string{"pool"})
	growVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "grow_total",
		Help:      "Total number of times the sizing controller added a worker.",
	}, []string{"pool"})
	shrinkVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "shrink_total",
		Help:      "Total number of times the sizing controller retired a worker.",
	}, []string{"pool"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_total",
		Help:      "Total number of operations rejected due to shutdown.",
	}, []string{"pool", "reason"})

	var err error
	if wallVec, err = registerCollector(reg, wallVec); err != nil {
		return nil, err
	}
	if cpuVec, err = registerCollector(reg, cpuVec); err != nil {
		return nil, err
	}
	if outcomeVec, err = registerCollector(reg, outcomeVec); err != nil {
		return nil, err
	}
	if backlogVec, err = registerCollector(reg, backlogVec); err != nil {
		return nil, err
	}
	if workerVec, err = registerCollector(reg, workerVec); err != nil {
		return nil, err
	}
	if growVec, err = registerCollector(reg, growVec); err != nil {
		return nil, err
	}
	if shrinkVec, err = registerCollector(reg, shrinkVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		itemWallSeconds:  wallVec,
		itemCPUSeconds:   cpuVec,
		itemOutcomeTotal: outcomeVec,
		backlogDepth:     backlogVec,
		workerCount:      workerVec,
		growTotal:        growVec,
		shrinkTotal:      shrinkVec,
		rejectedTotal:    rejectedVec,
	}, nil
}

// RecordItemDuration implements core.Metrics.
func (m *MetricsExporter) RecordItemDuration(poolID string, wall, cpu time.Duration, cpuAvailable bool) {
	if m == nil {
		return
	}
	m.itemWallSeconds.WithLabelValues(normalizeLabel(poolID, "unknown")).Observe(wall.Seconds())
	if cpuAvailable {
		m.itemCPUSeconds.WithLabelValues(normalizeLabel(poolID, "unknown")).Observe(cpu.Seconds())
	}
}

// RecordItemOutcome implements core.Metrics.
func (m *MetricsExporter) RecordItemOutcome(poolID string, outcome string) {
	if m == nil {
		return
	}
	m.itemOutcomeTotal.WithLabelValues(normalizeLabel(poolID, "unknown"), normalizeLabel(outcome, "unknown")).Inc()
}

// RecordBacklogDepth implements core.Metrics.
func (m *MetricsExporter) RecordBacklogDepth(poolID string, depth int) {
	if m == nil {
		return
	}
	m.backlogDepth.WithLabelValues(normalizeLabel(poolID, "unknown")).Set(float64(depth))
}

// RecordWorkerCount implements core.Metrics.
func (m *MetricsExporter) RecordWorkerCount(poolID string, count int) {
	if m == nil {
		return
	}
	m.workerCount.WithLabelValues(normalizeLabel(poolID, "unknown")).Set(float64(count))
}

// RecordGrow implements core.Metrics.
func (m *MetricsExporter) RecordGrow(poolID string, newCount int) {
	if m == nil {
		return
	}
	m.growTotal.WithLabelValues(normalizeLabel(poolID, "unknown")).Inc()
	m.workerCount.WithLabelValues(normalizeLabel(poolID, "unknown")).Set(float64(newCount))
}

// RecordShrink implements core.Metrics.
func (m *MetricsExporter) RecordShrink(poolID string, newCount int) {
	if m == nil {
		return
	}
	m.shrinkTotal.WithLabelValues(normalizeLabel(poolID, "unknown")).Inc()
	m.workerCount.WithLabelValues(normalizeLabel(poolID, "unknown")).Set(float64(newCount))
}

// RecordRejected implements core.Metrics.
func (m *MetricsExporter) RecordRejected(poolID string, reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(normalizeLabel(poolID, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
