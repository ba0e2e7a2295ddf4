package core

import (
	"sync"
	"time"
)

// ChildPool is a typed, bounded facade over a Pool: a private backlog
// bound independent of the Pool's own max_backlog, a tracked-items set,
// running totals of wall/cpu duration purged from completed items, and
// batch operations over the set. It borrows the Pool and must not outlive
// it.
//
// The parameter type T is preserved through EnqueueWithParam's generic
// closure capture rather than a reflection-based thunk, since Go closures
// already carry the captured type without help from a runtime registry.
type ChildPool[T any] struct {
	pool          *Pool
	maxChildDepth int

	mu        sync.Mutex
	tracked   []*WorkItem
	pending   int
	totalWall time.Duration
	totalCPU  time.Duration
}

// NewChildPool creates a ChildPool bound to pool. maxChildDepth <= 0 means
// the child backlog bound is unbounded (admission then waits only on the
// Pool's own global bound).
func NewChildPool[T any](pool *Pool, maxChildDepth int) *ChildPool[T] {
	return &ChildPool[T]{pool: pool, maxChildDepth: maxChildDepth}
}

// CreateChildPool returns a type-erased ChildPool bound to p. Go methods
// cannot carry their own type parameters, so callers who want the
// parameter's static type preserved use NewChildPool[T] instead; the two
// are otherwise equivalent.
func (p *Pool) CreateChildPool(maxChildDepth int) *ChildPool[any] {
	return NewChildPool[any](p, maxChildDepth)
}

// Enqueue admits a unary callable through the owning Pool, first waiting
// for room under max_child_depth (in addition to the Pool's own
// admission), then tracks the resulting WorkItem.
func (c *ChildPool[T]) Enqueue(param T, fn func(T) error, opts ...EnqueueOption) (*WorkItem, error) {
	if err := c.admitChild(); err != nil {
		return nil, err
	}
	item, err := EnqueueWithParam(c.pool, param, fn, opts...)
	if err != nil {
		c.releaseReservation()
		return nil, err
	}
	c.commit(item)
	return item, nil
}

// EnqueueFunc admits a nullary callable, for batches that don't need a
// per-item parameter but still want child-pool tracking and totals.
func (c *ChildPool[T]) EnqueueFunc(fn func() error, opts ...EnqueueOption) (*WorkItem, error) {
	if err := c.admitChild(); err != nil {
		return nil, err
	}
	item, err := c.pool.Enqueue(fn, opts...)
	if err != nil {
		c.releaseReservation()
		return nil, err
	}
	c.commit(item)
	return item, nil
}

// reserve checks the current depth against max_child_depth and, if there
// is room, claims a slot before the caller has even created a WorkItem.
// The check and the claim happen under the same lock, so two concurrent
// callers can never both observe spare room and together push the
// tracked count past max_child_depth, unlike a separate check-then-
// append, which leaves a window between the two.
func (c *ChildPool[T]) reserve() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxChildDepth > 0 && c.nonTerminalTrackedLocked()+c.pending >= c.maxChildDepth {
		return false
	}
	c.pending++
	return true
}

// releaseReservation gives back a slot claimed by reserve when the
// underlying Pool enqueue failed and no WorkItem was ever created.
func (c *ChildPool[T]) releaseReservation() {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()
}

// commit turns a reserved slot into a tracked item once the WorkItem
// exists, then purges anything that has since completed.
func (c *ChildPool[T]) commit(item *WorkItem) {
	c.mu.Lock()
	c.pending--
	c.tracked = append(c.tracked, item)
	c.mu.Unlock()
	c.purge()
}

// admitChild runs the same spin-then-park discipline as the Pool's own
// admission, bounded by max_child_depth instead of max_backlog. There is
// no dedicated wake signal for the child bound (the Pool's own Backlog
// notification already serves the global bound), so the park phase here
// relies solely on the bounded timer to keep polling latency bounded.
func (c *ChildPool[T]) admitChild() error {
	spins := 0
	for {
		if !c.pool.IsRunning() {
			return ErrShuttingDown
		}
		if c.reserve() {
			return nil
		}

		if spins < c.pool.cfg.SpinCount {
			spins++
			continue
		}

		select {
		case <-time.After(c.pool.cfg.ParkWait):
		case <-c.pool.stopped():
		}
		spins = 0
	}
}

// childDepth counts tracked items that have not yet reached a terminal
// state, the quantity max_child_depth actually bounds.
func (c *ChildPool[T]) childDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonTerminalTrackedLocked()
}

func (c *ChildPool[T]) nonTerminalTrackedLocked() int {
	n := 0
	for _, item := range c.tracked {
		if !item.IsComplete() {
			n++
		}
	}
	return n
}

// purge removes completed-without-error items from the tracked set,
// folding their durations into the running totals. Items in CompletedErr
// are never purged: they stay in the tracked set, so AnyFailed,
// FailedItems and ThrowAggregate keep reporting them on every call, and
// their durations are not added to the totals.
func (c *ChildPool[T]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.tracked[:0]
	for _, item := range c.tracked {
		if item.IsComplete() && !item.HadError() {
			c.totalWall += item.WallDuration()
			if cpu, ok := item.CPUDuration(); ok {
				c.totalCPU += cpu
			}
			continue
		}
		kept = append(kept, item)
	}
	c.tracked = kept
}

// TotalWallDuration returns the summed wall-clock duration of every
// completed-without-error item purged from the tracked set so far.
func (c *ChildPool[T]) TotalWallDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalWall
}

// TotalCPUDuration returns the summed CPU duration of every
// completed-without-error item purged so far, for hosts where CPU timing
// is available.
func (c *ChildPool[T]) TotalCPUDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCPU
}

// AnyFailed reports whether any tracked item is in CompletedErr.
func (c *ChildPool[T]) AnyFailed() bool {
	c.purge()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.tracked {
		if item.HadError() {
			return true
		}
	}
	return false
}

// FailedItems returns a snapshot of every tracked item in CompletedErr.
func (c *ChildPool[T]) FailedItems() []*WorkItem {
	c.purge()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*WorkItem
	for _, item := range c.tracked {
		if item.HadError() {
			out = append(out, item)
		}
	}
	return out
}

// AbortAll attempts to abort every tracked item. It returns true only if
// every attempt succeeded, meaning none had already started.
func (c *ChildPool[T]) AbortAll() bool {
	c.mu.Lock()
	items := make([]*WorkItem, len(c.tracked))
	copy(items, c.tracked)
	c.mu.Unlock()

	all := true
	for _, item := range items {
		if !item.Abort() {
			all = false
		}
	}
	c.purge()
	return all
}

// WaitAll blocks until every tracked item reaches a terminal state,
// awaiting them in sequence. It returns ErrShuttingDown if the pool stops
// while waiting on any item.
func (c *ChildPool[T]) WaitAll() error {
	c.purge()
	items := c.snapshot()
	for _, item := range items {
		if err := item.Wait(); err != nil {
			return err
		}
	}
	c.purge()
	return nil
}

// WaitAllTimeout blocks on every tracked item in sequence against a single
// shared deadline. It returns false (without aborting any item) the
// instant the deadline is exceeded, true once every item has completed
// within it, and ErrShuttingDown if the pool stops while waiting.
func (c *ChildPool[T]) WaitAllTimeout(timeout time.Duration) (bool, error) {
	c.purge()
	items := c.snapshot()
	deadline := time.Now().Add(timeout)

	for _, item := range items {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		done, err := item.WaitFor(remaining)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	c.purge()
	return true, nil
}

// WaitAllProgress blocks on every tracked item in sequence, calling hook
// every interval of elapsed time without that item completing. A false
// return from hook stops the batch wait (without aborting any item) and
// returns false. Returns ErrShuttingDown if the pool stops while waiting.
func (c *ChildPool[T]) WaitAllProgress(interval time.Duration, hook func() bool) (bool, error) {
	c.purge()
	items := c.snapshot()
	for _, item := range items {
		done, err := item.WaitWithProgress(interval, hook)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	c.purge()
	return true, nil
}

func (c *ChildPool[T]) snapshot() []*WorkItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*WorkItem, len(c.tracked))
	copy(out, c.tracked)
	return out
}

// ThrowAggregate returns an *AggregateError bundling every tracked item
// currently in CompletedErr, or nil if none have failed.
func (c *ChildPool[T]) ThrowAggregate() error {
	c.purge()
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []*ItemError
	for _, item := range c.tracked {
		if !item.HadError() {
			continue
		}
		if ie, ok := item.Error().(*ItemError); ok {
			errs = append(errs, ie)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}
