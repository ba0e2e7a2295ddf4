package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// WorkerInfo is a point-in-time snapshot of one WorkerSlot, returned by
// Pool.Workers().
type WorkerInfo struct {
	ID          string
	State       SlotState
	TotalCPU    time.Duration
	CPUReported bool
}

// Pool owns the Backlog and the set of WorkerSlots: it enforces the
// global backlog bound, signals an idle worker on enqueue, and
// orchestrates shutdown. It admits work with backpressure against
// max_backlog, allows per-item abort, and elastically resizes its worker
// set through an attached SizingController.
type Pool struct {
	id  string
	cfg Config

	backlog *Backlog

	workersMu sync.Mutex
	workers   []*WorkerSlot
	wg        sync.WaitGroup

	keepRunning atomic.Bool
	stopCh      chan struct{}
	stopOnce    sync.Once

	sizing *SizingController

	// log is cfg.Logger scoped to this pool's ID; WorkerSlots and the
	// SizingController log through this instead of cfg.Logger directly
	// so every line they emit is already tagged with the owning pool.
	log Logger
}

// New validates cfg and constructs a Pool with cfg.InitialWorkers running
// WorkerSlots and an active SizingController. Construction fails with
// ErrConfigInvalid if cfg violates a constraint.
func New(cfg Config) (*Pool, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	p := &Pool{
		id:      uuid.New().String(),
		cfg:     normalized,
		backlog: NewBacklog(),
		stopCh:  make(chan struct{}),
	}
	p.log = ScopedToPool(normalized.Logger, p.id)
	p.keepRunning.Store(true)

	for range normalized.InitialWorkers {
		p.spawnWorkerLocked()
	}

	p.sizing = newSizingController(p)
	p.sizing.start()

	p.log.Info("pool started",
		F("initial_workers", normalized.InitialWorkers),
		F("max_workers", normalized.MaxWorkers),
	)
	return p, nil
}

// ID returns the pool's identity, used to label logs and metrics.
func (p *Pool) ID() string { return p.id }

func (p *Pool) stopped() <-chan struct{} { return p.stopCh }

// spawnWorkerLocked appends and starts one WorkerSlot. Callers must hold
// workersMu.
func (p *Pool) spawnWorkerLocked() *WorkerSlot {
	slot := newWorkerSlot(p)
	p.workers = append(p.workers, slot)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		slot.run()
	}()
	return slot
}

// growBy adds n additional WorkerSlots, never exceeding MaxWorkers.
// Returns the number actually added.
func (p *Pool) growBy(n int) int {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()

	added := 0
	for added < n && len(p.workers) < p.cfg.MaxWorkers {
		p.spawnWorkerLocked()
		added++
	}
	return added
}

// shrinkOne retires the last-added Idle slot and removes it from the
// active set, never going below InitialWorkers. Returns true if a worker
// was retired.
func (p *Pool) shrinkOne() bool {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()

	if len(p.workers) <= p.cfg.InitialWorkers {
		return false
	}
	for i := len(p.workers) - 1; i >= 0; i-- {
		if p.workers[i].State() == SlotIdle {
			victim := p.workers[i]
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			victim.retire()
			return true
		}
	}
	return false
}

func (p *Pool) workerSnapshot() (count int, anyIdle bool) {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()
	for _, w := range p.workers {
		if w.State() == SlotIdle {
			anyIdle = true
		}
	}
	return len(p.workers), anyIdle
}

// WorkerCount returns the current number of live WorkerSlots.
func (p *Pool) WorkerCount() int {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()
	return len(p.workers)
}

// Workers returns a snapshot of every live WorkerSlot's managed id, state,
// and (if available) cumulative CPU time.
func (p *Pool) Workers() []WorkerInfo {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()
	out := make([]WorkerInfo, len(p.workers))
	for i, w := range p.workers {
		cpu, ok := w.TotalCPUTime()
		out[i] = WorkerInfo{ID: w.ID(), State: w.State(), TotalCPU: cpu, CPUReported: ok}
	}
	return out
}

// BacklogLen returns the current number of pending items.
func (p *Pool) BacklogLen() int { return p.backlog.Len() }

// EnqueueOptions configures a single enqueue call.
type EnqueueOptions struct {
	Name       string
	OnComplete CompletionHook
}

// EnqueueOption mutates EnqueueOptions.
type EnqueueOption func(*EnqueueOptions)

// WithName attaches a user label to the enqueued item.
func WithName(name string) EnqueueOption {
	return func(o *EnqueueOptions) { o.Name = name }
}

// WithOnComplete attaches a completion hook, invoked exactly once from the
// item's terminal transition.
func WithOnComplete(hook CompletionHook) EnqueueOption {
	return func(o *EnqueueOptions) { o.OnComplete = hook }
}

func resolveOptions(opts []EnqueueOption) EnqueueOptions {
	var o EnqueueOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Enqueue admits a nullary callable. It blocks (spin-then-park) while the
// backlog is at its bound, and fails with ErrShuttingDown if the pool
// stops before admission succeeds.
func (p *Pool) Enqueue(fn func() error, opts ...EnqueueOption) (*WorkItem, error) {
	return p.enqueue(Callable(fn), opts)
}

// EnqueueWithParam admits a unary callable invoked with param. The
// parameter keeps its static type T through this call; the WorkItem
// itself only stores a type-erased closure that captures it.
func EnqueueWithParam[T any](p *Pool, param T, fn func(T) error, opts ...EnqueueOption) (*WorkItem, error) {
	return p.enqueue(func() error { return fn(param) }, opts)
}

func (p *Pool) enqueue(fn Callable, opts []EnqueueOption) (*WorkItem, error) {
	o := resolveOptions(opts)

	item := newWorkItem(p, o.Name, fn, o.OnComplete)
	if err := p.admitAndPush(item); err != nil {
		p.cfg.Metrics.RecordRejected(p.id, "shutting_down")
		return nil, err
	}

	p.cfg.Metrics.RecordBacklogDepth(p.id, p.backlog.Len())
	p.wakeAnyIdle()
	return item, nil
}

// admitAndPush runs the admission spin-then-park loop against max_backlog
// and pushes item the instant there is room, with the bound check and the
// push itself performed as one atomic step under the backlog's own
// mutex (Backlog.PushIfUnderBound) so two concurrent producers can never
// both observe spare capacity and overshoot the bound. A max_backlog of 0
// never blocks.
func (p *Pool) admitAndPush(item *WorkItem) error {
	spins := 0
	for {
		if !p.keepRunning.Load() {
			return ErrShuttingDown
		}
		if p.backlog.PushIfUnderBound(item, p.cfg.MaxBacklog) {
			return nil
		}

		if spins < p.cfg.SpinCount {
			spins++
			continue
		}

		select {
		case <-p.backlog.NotifyChan():
		case <-time.After(p.cfg.ParkWait):
		case <-p.stopCh:
		}
		spins = 0
	}
}

// wakeAnyIdle signals one Idle WorkerSlot, if any. Finding none is not an
// error: the next worker to finish its current item, or to come out of a
// park cycle, will observe the new tail on its own.
func (p *Pool) wakeAnyIdle() {
	p.workersMu.Lock()
	defer p.workersMu.Unlock()
	for _, w := range p.workers {
		if w.State() == SlotIdle {
			w.wake()
			return
		}
	}
}

// Abort attempts to abort item. See WorkItem.Abort.
func (p *Pool) Abort(item *WorkItem) bool { return item.Abort() }

// Stop halts the SizingController, signals every WorkerSlot, joins them
// all, and clears the slot set. Idempotent; safe to call multiple times
// or concurrently.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.keepRunning.Store(false)
		close(p.stopCh)
		p.sizing.stop()

		p.workersMu.Lock()
		for _, w := range p.workers {
			w.retire()
		}
		p.workersMu.Unlock()

		p.wg.Wait()

		p.workersMu.Lock()
		p.workers = nil
		p.workersMu.Unlock()

		p.backlog.Clear()
		p.log.Info("pool stopped")
	})
}

// Dispose is an alias for Stop; both are idempotent.
func (p *Pool) Dispose() { p.Stop() }

// IsRunning reports whether the pool has not yet been stopped.
func (p *Pool) IsRunning() bool { return p.keepRunning.Load() }
