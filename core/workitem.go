package core

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ItemState is the WorkItem state machine. Transitions are monotonic:
// once any terminal state (CompletedOk, CompletedErr, Aborted) is reached,
// no further transition is possible.
type ItemState int32

const (
	StatePending ItemState = iota
	StateRunning
	StateCompletedOk
	StateCompletedErr
	StateAborted
)

func (s ItemState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompletedOk:
		return "completed_ok"
	case StateCompletedErr:
		return "completed_err"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (s ItemState) isTerminal() bool {
	return s == StateCompletedOk || s == StateCompletedErr || s == StateAborted
}

// Callable is the type-erased unit of work a WorkItem executes. The Pool
// level only ever sees this shape; EnqueueWithParam (which ChildPool[T]
// calls) keeps the parameter's static type by capturing it in the closure
// it builds (see pool.go),
// avoiding a reflection-based dispatch thunk since Go closures already
// carry the type.
type Callable func() error

// CompletionHook is invoked at most once, from the terminal transition
// that first marks a WorkItem complete.
type CompletionHook func(*WorkItem)

// WorkItem holds one enqueued callable plus its mutable completion state.
// A WorkItem is owned by the Backlog while pending, by the executing
// WorkerSlot while running, and by the caller (and, if applicable, its
// ChildPool) once terminal.
type WorkItem struct {
	id   string
	name string

	// pool is a non-owning back-reference used only to observe
	// keep_running while waiting; the Pool strictly outlives every
	// WorkItem it has handed out (see design notes).
	pool *Pool

	fn         Callable
	onComplete CompletionHook

	state atomic.Int32

	mu           sync.Mutex
	startAt      time.Time
	wallDuration time.Duration
	cpuDuration  time.Duration
	cpuAvailable bool
	err          error

	done     chan struct{}
	doneOnce sync.Once
}

func newWorkItem(pool *Pool, name string, fn Callable, hook CompletionHook) *WorkItem {
	return &WorkItem{
		id:         uuid.New().String(),
		name:       name,
		pool:       pool,
		fn:         fn,
		onComplete: hook,
		done:       make(chan struct{}),
	}
}

// ID returns the item's unique identity, assigned at enqueue.
func (w *WorkItem) ID() string { return w.id }

// Name returns the optional user label, or "" if none was given.
func (w *WorkItem) Name() string { return w.name }

// State returns the current state. It may be stale the instant it is
// read under concurrent execution; use the terminal-state accessors below
// to make decisions.
func (w *WorkItem) State() ItemState { return ItemState(w.state.Load()) }

// IsComplete reports whether the item has reached any terminal state.
func (w *WorkItem) IsComplete() bool { return ItemState(w.state.Load()).isTerminal() }

// WasAborted reports whether the item was aborted before it started.
func (w *WorkItem) WasAborted() bool { return ItemState(w.state.Load()) == StateAborted }

// HadError reports whether the item's callable returned or panicked with
// an error.
func (w *WorkItem) HadError() bool { return ItemState(w.state.Load()) == StateCompletedErr }

// Error returns the captured error, or nil if the item has not failed.
func (w *WorkItem) Error() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// StartAt returns the instant the callable was invoked. Zero if the item
// never started (e.g. aborted while pending).
func (w *WorkItem) StartAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startAt
}

// WallDuration returns how long the callable ran, set iff the item
// reached a terminal state after a worker began executing it.
func (w *WorkItem) WallDuration() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wallDuration
}

// CPUDuration returns the CPU time spent executing the callable, and
// whether the host was able to supply it at all (see cputime.go).
func (w *WorkItem) CPUDuration() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cpuDuration, w.cpuAvailable
}

// tryStart attempts the Pending -> Running transition. Returns false if
// the item was already aborted (or, impossibly under the state machine,
// already started): the worker must skip invoking the callable and must
// not run its completion hook a second time.
func (w *WorkItem) tryStart() bool {
	return w.state.CompareAndSwap(int32(StatePending), int32(StateRunning))
}

// markStarted records the instant the callable is invoked (not the
// enqueue instant), so StartAt is observable while the item is still
// running.
func (w *WorkItem) markStarted(at time.Time) {
	w.mu.Lock()
	w.startAt = at
	w.mu.Unlock()
}

// finish records timing and transitions Running -> terminal, then wakes
// waiters and fires the completion hook. Called by exactly the worker
// that won tryStart, exactly once.
func (w *WorkItem) finish(wall time.Duration, cpu time.Duration, cpuAvailable bool, err error) {
	w.mu.Lock()
	w.wallDuration = wall
	w.cpuDuration = cpu
	w.cpuAvailable = cpuAvailable
	if err != nil {
		w.err = &ItemError{ItemName: w.name, Inner: err}
	}
	w.mu.Unlock()

	final := StateCompletedOk
	if err != nil {
		final = StateCompletedErr
	}
	w.state.Store(int32(final))
	w.complete()
}

// Abort transitions a Pending item to Aborted. It is a no-op (returning
// false) for Running or any terminal item; a running callable is never
// interrupted.
func (w *WorkItem) Abort() bool {
	if !w.state.CompareAndSwap(int32(StatePending), int32(StateAborted)) {
		return false
	}
	w.complete()
	return true
}

// complete wakes every waiter, then fires the hook (if any). The notifier
// closes first so a blocked waiter never waits on the hook's execution.
// Reached from exactly one of finish or Abort, which is why this never
// double-fires.
func (w *WorkItem) complete() {
	w.doneOnce.Do(func() {
		close(w.done)
		w.invokeHook()
	})
}

// invokeHook runs on_complete, capturing a panic inside the hook the same
// way a panicking callable is captured, instead of letting it unwind the
// goroutine that completed the item (a worker, or a caller aborting it).
func (w *WorkItem) invokeHook() {
	if w.onComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			if w.pool != nil {
				w.pool.cfg.PanicHandler.HandlePanic(w.pool.id, "", w.name, r, stack[:n])
			}
		}
	}()
	w.onComplete(w)
}

// Wait blocks until the item reaches a terminal state. It returns
// ErrShuttingDown if the owning pool stops while waiting.
func (w *WorkItem) Wait() error {
	_, err := w.waitWithDeadline(nil, 0, nil)
	return err
}

// WaitFor blocks up to timeout. It returns true if the item completed,
// false on timeout, and ErrShuttingDown if the pool stops while waiting.
func (w *WorkItem) WaitFor(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	return w.waitWithDeadline(&deadline, 0, nil)
}

// WaitWithProgress blocks like Wait, but calls hook every interval of
// elapsed time without completion. If hook returns false, WaitWithProgress
// returns false without aborting the item. Returns ErrShuttingDown if the
// pool stops while waiting.
func (w *WorkItem) WaitWithProgress(interval time.Duration, hook func() bool) (bool, error) {
	return w.waitWithDeadline(nil, interval, hook)
}

// waitWithDeadline is the single spin-then-park implementation backing
// all three public wait variants, guarded throughout by IsComplete and by
// the owning pool's keep_running flag so a stopping pool wakes every
// waiter with a bounded delay.
func (w *WorkItem) waitWithDeadline(deadline *time.Time, progressInterval time.Duration, progressHook func() bool) (bool, error) {
	if w.IsComplete() {
		return true, nil
	}

	lastProgress := time.Now()
	spins := 0
	for {
		if spins < w.pool.cfg.SpinCount {
			spins++
		} else {
			select {
			case <-w.done:
				return true, nil
			case <-w.pool.stopped():
				if w.IsComplete() {
					return true, nil
				}
				return false, ErrShuttingDown
			case <-time.After(w.pool.cfg.ParkWait):
			}
			spins = 0
		}

		if w.IsComplete() {
			return true, nil
		}
		if deadline != nil && !time.Now().Before(*deadline) {
			return false, nil
		}
		if progressHook != nil && progressInterval > 0 && time.Since(lastProgress) >= progressInterval {
			lastProgress = time.Now()
			if !progressHook() {
				return false, nil
			}
		}
	}
}
