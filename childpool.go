package activepool

import "github.com/flint-systems/activepool/core"

// ChildPool is a typed, bounded facade over a Pool: a private backlog
// bound independent of the Pool's own max_backlog, a tracked-items set,
// running totals of wall/cpu duration across purged completed items, and
// batch operations (AnyFailed, FailedItems, AbortAll, WaitAll,
// ThrowAggregate). A ChildPool borrows its Pool and must not outlive it.
type ChildPool[T any] = core.ChildPool[T]

// NewChildPool creates a ChildPool bound to pool. maxChildDepth <= 0
// means the child backlog bound is unbounded (admission then waits only
// on the Pool's own global bound).
func NewChildPool[T any](pool *Pool, maxChildDepth int) *ChildPool[T] {
	return core.NewChildPool[T](pool, maxChildDepth)
}
