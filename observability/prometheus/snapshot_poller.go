package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolStatsProvider is satisfied by *core.Pool via its existing
// WorkerCount, BacklogLen and IsRunning views; no change to the core
// engine is needed to plug a Pool into a SnapshotPoller.
type PoolStatsProvider interface {
	WorkerCount() int
	BacklogLen() int
	IsRunning() bool
}

// SnapshotPoller periodically samples registered Pools' read-only views
// into Prometheus gauges. It exists alongside MetricsExporter for
// programs that only want point-in-time size/depth visibility and don't
// want to wire a full core.Metrics implementation into pool construction.
// It runs a single ticker-driven poll loop across every registered pool,
// with Start/Stop governing that loop's lifecycle.
type SnapshotPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolStatsProvider

	workerCount *prom.GaugeVec
	backlog     *prom.GaugeVec
	running     *prom.GaugeVec

	stateMu sync.Mutex
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its
// collectors. interval <= 0 defaults to one second.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	workerCount := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "activepool",
		Name:      "polled_worker_count",
		Help:      "Worker count sampled from a registered Pool.",
	}, []string{"pool"})
	backlog := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "activepool",
		Name:      "polled_backlog_depth",
		Help:      "Backlog depth sampled from a registered Pool.",
	}, []string{"pool"})
	running := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "activepool",
		Name:      "polled_running",
		Help:      "Pool running state sampled from a registered Pool (1=running, 0=stopped).",
	}, []string{"pool"})

	var err error
	if workerCount, err = registerCollector(reg, workerCount); err != nil {
		return nil, err
	}
	if backlog, err = registerCollector(reg, backlog); err != nil {
		return nil, err
	}
	if running, err = registerCollector(reg, running); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:    interval,
		pools:       make(map[string]PoolStatsProvider),
		workerCount: workerCount,
		backlog:     backlog,
		running:     running,
	}, nil
}

// AddPool adds or replaces a Pool sampled under name.
func (p *SnapshotPoller) AddPool(name string, provider PoolStatsProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.active {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.active = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.active {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.active = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		p.workerCount.WithLabelValues(name).Set(float64(provider.WorkerCount()))
		p.backlog.WithLabelValues(name).Set(float64(provider.BacklogLen()))
		if provider.IsRunning() {
			p.running.WithLabelValues(name).Set(1)
		} else {
			p.running.WithLabelValues(name).Set(0)
		}
	}
}
