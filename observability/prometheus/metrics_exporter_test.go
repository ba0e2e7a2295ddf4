package prometheus

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("activepool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordItemDuration("pool-a", 250*time.Millisecond, 200*time.Millisecond, true)
	exporter.RecordItemOutcome("pool-a", "completed_ok")
	exporter.RecordBacklogDepth("pool-a", 7)
	exporter.RecordWorkerCount("pool-a", 4)
	exporter.RecordGrow("pool-a", 5)
	exporter.RecordShrink("pool-a", 4)
	exporter.RecordRejected("pool-a", "shutting_down")

	outcomeTotal := testutil.ToFloat64(exporter.itemOutcomeTotal.WithLabelValues("pool-a", "completed_ok"))
	if outcomeTotal != 1 {
		t.Fatalf("outcome total = %v, want 1", outcomeTotal)
	}

	backlog := testutil.ToFloat64(exporter.backlogDepth.WithLabelValues("pool-a"))
	if backlog != 7 {
		t.Fatalf("backlog depth = %v, want 7", backlog)
	}

	workers := testutil.ToFloat64(exporter.workerCount.WithLabelValues("pool-a"))
	if workers != 4 {
		t.Fatalf("worker count = %v, want 4 (grow/shrink set it last)", workers)
	}

	growTotal := testutil.ToFloat64(exporter.growTotal.WithLabelValues("pool-a"))
	if growTotal != 1 {
		t.Fatalf("grow total = %v, want 1", growTotal)
	}
	shrinkTotal := testutil.ToFloat64(exporter.shrinkTotal.WithLabelValues("pool-a"))
	if shrinkTotal != 1 {
		t.Fatalf("shrink total = %v, want 1", shrinkTotal)
	}

	rejected := testutil.ToFloat64(exporter.rejectedTotal.WithLabelValues("pool-a", "shutting_down"))
	if rejected != 1 {
		t.Fatalf("rejected total = %v, want 1", rejected)
	}

	wallCount, err := histogramSampleCount(exporter.itemWallSeconds.WithLabelValues("pool-a"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if wallCount != 1 {
		t.Fatalf("wall duration sample count = %d, want 1", wallCount)
	}

	cpuCount, err := histogramSampleCount(exporter.itemCPUSeconds.WithLabelValues("pool-a"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if cpuCount != 1 {
		t.Fatalf("cpu duration sample count = %d, want 1", cpuCount)
	}
}

func TestMetricsExporter_CPUUnavailableSkipsHistogram(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("activepool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordItemDuration("pool-a", 100*time.Millisecond, 0, false)

	cpuCount, err := histogramSampleCount(exporter.itemCPUSeconds.WithLabelValues("pool-a"))
	if err != nil {
		t.Fatalf("histogramSampleCount failed: %v", err)
	}
	if cpuCount != 0 {
		t.Fatalf("cpu duration sample count = %d, want 0 when unavailable", cpuCount)
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("activepool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("activepool", reg, ExporterOptions{})
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordRejected("pool-a", "shutting_down")
	second.RecordRejected("pool-a", "shutting_down")

	got := testutil.ToFloat64(first.rejectedTotal.WithLabelValues("pool-a", "shutting_down"))
	if got != 2 {
		t.Fatalf("shared rejected counter = %v, want 2", got)
	}
}

func histogramSampleCount(observer prom.Observer) (uint64, error) {
	collector, ok := observer.(prom.Collector)
	if !ok {
		return 0, nil
	}

	metricCh := make(chan prom.Metric, 1)
	collector.Collect(metricCh)
	close(metricCh)
	for metric := range metricCh {
		msg := &dto.Metric{}
		if err := metric.Write(msg); err != nil {
			return 0, err
		}
		if msg.Histogram != nil {
			return msg.Histogram.GetSampleCount(), nil
		}
	}
	return 0, nil
}
