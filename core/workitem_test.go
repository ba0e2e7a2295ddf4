package core

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestWorkItem_CompletesOkAndFiresHookOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	var hookCalls int32
	hookDone := make(chan struct{})
	item, err := pool.Enqueue(func() error { return nil }, WithOnComplete(func(*WorkItem) {
		atomic.AddInt32(&hookCalls, 1)
		close(hookDone)
	}))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := item.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !item.IsComplete() || item.HadError() {
		t.Fatalf("item should be complete without error, state=%v", item.State())
	}

	// The completion notifier fires before the hook, so waiting on the
	// item alone does not order us after the hook's invocation.
	select {
	case <-hookDone:
	case <-time.After(time.Second):
		t.Fatalf("on_complete never fired")
	}
	if atomic.LoadInt32(&hookCalls) != 1 {
		t.Fatalf("on_complete invoked %d times, want 1", hookCalls)
	}
}

func TestWorkItem_CapturesCallableError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	sentinel := errors.New("boom")
	item, err := pool.Enqueue(func() error { return sentinel })
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := item.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !item.HadError() {
		t.Fatalf("item should have an error")
	}
	if !errors.Is(item.Error(), sentinel) {
		t.Fatalf("item.Error() = %v, want it to wrap %v", item.Error(), sentinel)
	}

	// The pool must still accept and run further work.
	second, err := pool.Enqueue(func() error { return nil })
	if err != nil {
		t.Fatalf("second Enqueue failed: %v", err)
	}
	if err := second.Wait(); err != nil || second.HadError() {
		t.Fatalf("second item should complete ok, err=%v hadError=%v", err, second.HadError())
	}
}

func TestWorkItem_AbortBeforeStartSkipsCallable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	var calls int32
	a, err := pool.Enqueue(func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue A failed: %v", err)
	}
	b, err := pool.Enqueue(func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue B failed: %v", err)
	}

	if !b.Abort() {
		t.Fatalf("Abort() on pending item should succeed")
	}
	if second := b.Abort(); second {
		t.Fatalf("second Abort() should return false")
	}

	if !b.IsComplete() || !b.WasAborted() {
		t.Fatalf("B should be complete and aborted")
	}

	if err := a.Wait(); err != nil {
		t.Fatalf("A wait error = %v", err)
	}
	if !a.IsComplete() || a.HadError() {
		t.Fatalf("A should complete ok")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("B's callable ran %d times, want 0", calls)
	}
}

func TestWorkItem_PanickingCompletionHookIsContained(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	item, err := pool.Enqueue(func() error { return nil }, WithOnComplete(func(*WorkItem) {
		panic("hook boom")
	}))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if err := item.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if item.HadError() {
		t.Fatalf("a panicking hook must not change the item's outcome")
	}

	// The worker that ran the hook must survive it.
	var ran int32
	next, err := pool.Enqueue(func() error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue after hook panic failed: %v", err)
	}
	if err := next.Wait(); err != nil {
		t.Fatalf("Wait() after hook panic error = %v", err)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("worker should keep executing items after a hook panic")
	}
}

func TestWorkItem_WaitForTimesOutButCallableStillFinishes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	hookDone := make(chan struct{})
	item, err := pool.Enqueue(func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}, WithOnComplete(func(*WorkItem) { close(hookDone) }))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	done, err := item.WaitFor(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("WaitFor error = %v", err)
	}
	if done {
		t.Fatalf("WaitFor should have timed out before the callable finished")
	}

	if err := item.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case <-hookDone:
	case <-time.After(time.Second):
		t.Fatalf("on_complete should have fired once the item actually finished")
	}
}

func TestWorkItem_WaitWithProgressHookFalseStopsWaitNotItem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	item, err := pool.Enqueue(func() error {
		time.Sleep(120 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	var hookCalls int32
	done, err := item.WaitWithProgress(10*time.Millisecond, func() bool {
		atomic.AddInt32(&hookCalls, 1)
		return false
	})
	if err != nil {
		t.Fatalf("WaitWithProgress error = %v", err)
	}
	if done {
		t.Fatalf("WaitWithProgress should return false once the hook returns false")
	}
	if atomic.LoadInt32(&hookCalls) == 0 {
		t.Fatalf("progress hook should have been invoked at least once")
	}

	if err := item.Wait(); err != nil {
		t.Fatalf("item should still run to completion: %v", err)
	}
}
