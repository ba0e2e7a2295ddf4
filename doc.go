// Package activepool provides an active worker pool for Go: a
// process-resident set of pre-spawned worker goroutines that dequeue
// user-supplied callables from a single shared backlog, execute them, and
// publish per-item completion state back to the caller.
//
// It is infrastructure for programs that need finer control than a
// generic runtime thread pool: bounded backlogs with producer
// backpressure, blocking and timed waits on individual items, per-item
// abort, a typed batching facade (ChildPool) with its own tighter bound,
// and elastic sizing that grows the pool under sustained overload and
// shrinks it under sustained idleness.
//
// # Quick Start
//
//	pool, err := activepool.New(activepool.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Stop()
//
//	item, err := pool.Enqueue(func() error {
//		return doWork()
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := item.Wait(); err != nil {
//		log.Fatal(err)
//	}
//	if item.HadError() {
//		log.Printf("work failed: %v", item.Error())
//	}
//
// # Key Concepts
//
// Pool owns the backlog and the set of worker goroutines; it enforces the
// configured backlog bound and orchestrates shutdown. WorkItem is the
// handle returned by an enqueue call; it tracks one callable's state
// machine (Pending, Running, CompletedOk, CompletedErr, Aborted) through
// to completion. ChildPool groups a batch of items enqueued through the
// same Pool behind a private, tighter backlog bound, with batch wait and
// aggregate-error operations.
//
// # Elastic sizing
//
// A SizingController runs against every Pool on a fixed tick, growing the
// worker set under sustained overload (with exponential backoff on the
// growth threshold) and shrinking it under sustained idleness, never
// outside [initial_workers, max_workers].
//
// # Thread safety
//
// Every exported type here is safe for concurrent use from multiple
// goroutines. A running callable is never preempted or cancelled by the
// pool; abort only ever affects an item that has not yet started.
package activepool
