package core

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SlotState is a WorkerSlot's reported activity.
type SlotState int32

const (
	SlotIdle SlotState = iota
	SlotExecuting
)

func (s SlotState) String() string {
	if s == SlotExecuting {
		return "executing"
	}
	return "idle"
}

// WorkerSlot is one pre-spawned worker goroutine: its lifecycle flag, its
// park/wake primitive, and its last-known state. Its loop busy-checks the
// shared Backlog a bounded number of times before parking, rather than
// blocking unconditionally on every empty dequeue, trading a little CPU
// for lower latency picking up the next item; it also records per-item
// wall and CPU time around each invocation.
type WorkerSlot struct {
	id   string
	pool *Pool

	state       atomic.Int32
	keepRunning atomic.Bool

	// park is the auto-reset per-slot wake signal: buffered to depth 1 so
	// a signal sent while the slot is executing is not lost, and a second
	// signal sent while one is already pending is a no-op.
	park chan struct{}

	cpuAvailable atomic.Bool
	totalCPUNs   atomic.Int64

	done chan struct{}
}

func newWorkerSlot(pool *Pool) *WorkerSlot {
	s := &WorkerSlot{
		id:   uuid.New().String(),
		pool: pool,
		park: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	s.keepRunning.Store(true)
	return s
}

// ID returns the worker's managed identity.
func (s *WorkerSlot) ID() string { return s.id }

// State returns the worker's last-observed activity.
func (s *WorkerSlot) State() SlotState { return SlotState(s.state.Load()) }

// TotalCPUTime returns the worker's cumulative CPU time across every item
// it has executed, and whether the host was able to supply any of it.
func (s *WorkerSlot) TotalCPUTime() (time.Duration, bool) {
	if !s.cpuAvailable.Load() {
		return 0, false
	}
	return time.Duration(s.totalCPUNs.Load()), true
}

// wake unparks the slot exactly once; calling it while the slot is
// executing is a harmless no-op that primes the next park to return
// immediately, so a wake signal sent at any point is never lost.
func (s *WorkerSlot) wake() {
	select {
	case s.park <- struct{}{}:
	default:
	}
}

// retire clears keep_running and wakes the slot so its loop observes the
// flag on its next park iteration and exits. Used by both Pool.Stop (every
// slot) and the SizingController's selective shrink (one slot).
func (s *WorkerSlot) retire() {
	s.keepRunning.Store(false)
	s.wake()
}

// run is the worker loop. It must be started as its own goroutine; it
// returns once pool.keepRunning or s.keepRunning goes false.
func (s *WorkerSlot) run() {
	defer close(s.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := applyWorkerPriority(s.pool.cfg.Priority); err != nil {
		s.pool.log.Debug("worker priority not applied", FWorker(s.id), F("error", err))
	}

	spins := 0
	for s.pool.keepRunning.Load() && s.keepRunning.Load() {
		item, ok := s.pool.backlog.TryPopSkippingTerminal()
		if !ok {
			if spins >= s.pool.cfg.SpinCount {
				select {
				case <-s.park:
				case <-time.After(s.pool.cfg.ParkWait):
				}
				spins = 0
			} else {
				spins++
			}
			continue
		}

		spins = 0
		s.execute(item)
	}
}

// execute runs one item to completion. The Backlog mutex is never held
// here; TryPopSkippingTerminal already released it before returning the
// item, so a long-running callable never blocks other producers or
// workers from touching the backlog.
func (s *WorkerSlot) execute(item *WorkItem) {
	if !item.tryStart() {
		// Aborted between dequeue and here; its hook already ran from
		// Abort(). Skip without invoking it a second time.
		return
	}

	s.state.Store(int32(SlotExecuting))
	defer s.state.Store(int32(SlotIdle))

	start := time.Now()
	item.markStarted(start)
	cpu0, cpuOk := sampleThreadCPUTime()

	err := s.invoke(item)

	wall := time.Since(start)
	var cpuDelta time.Duration
	cpuAvailable := false
	if cpuOk {
		if cpu1, ok := sampleThreadCPUTime(); ok {
			cpuDelta = cpu1 - cpu0
			cpuAvailable = true
			s.cpuAvailable.Store(true)
			s.totalCPUNs.Add(int64(cpuDelta))
		}
	}

	item.finish(wall, cpuDelta, cpuAvailable, err)

	outcome := "completed_ok"
	if err != nil {
		outcome = "completed_err"
	}
	s.pool.cfg.Metrics.RecordItemDuration(s.pool.id, wall, cpuDelta, cpuAvailable)
	s.pool.cfg.Metrics.RecordItemOutcome(s.pool.id, outcome)
}

// invoke calls the callable, converting a panic into the same error
// channel a returned error would take, so a panicking callable is
// recorded on its WorkItem instead of unwinding past the worker loop and
// killing the goroutine.
func (s *WorkerSlot) invoke(item *WorkItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			s.pool.cfg.PanicHandler.HandlePanic(s.pool.id, s.id, item.Name(), r, stack[:n])
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return item.fn()
}
