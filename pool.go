package activepool

import "github.com/flint-systems/activepool/core"

// Pool owns the backlog and the set of worker goroutines, enforces the
// configured backlog bound, and orchestrates shutdown. See core.Pool.
type Pool = core.Pool

// EnqueueOption mutates EnqueueOptions.
type EnqueueOption = core.EnqueueOption

// EnqueueOptions configures a single enqueue call.
type EnqueueOptions = core.EnqueueOptions

// WithName attaches a user label to the enqueued item.
func WithName(name string) EnqueueOption { return core.WithName(name) }

// WithOnComplete attaches a completion hook, invoked exactly once from
// the item's terminal transition.
func WithOnComplete(hook CompletionHook) EnqueueOption { return core.WithOnComplete(hook) }

// New validates cfg and constructs a Pool with cfg.InitialWorkers running
// worker goroutines and an active elastic sizing controller.
// Construction fails with ErrConfigInvalid if cfg violates a constraint.
func New(cfg Config) (*Pool, error) {
	return core.New(cfg)
}

// EnqueueWithParam admits a unary callable invoked with param. Use this
// to preserve a parameter's static type at the call site rather than
// closing over it manually before calling Pool.Enqueue.
func EnqueueWithParam[T any](p *Pool, param T, fn func(T) error, opts ...EnqueueOption) (*WorkItem, error) {
	return core.EnqueueWithParam(p, param, fn, opts...)
}
