package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{InitialWorkers: -1})
	if err == nil {
		t.Fatalf("expected ErrConfigInvalid for negative initial_workers")
	}

	_, err = New(Config{InitialWorkers: 4, MaxWorkers: 2})
	if err == nil {
		t.Fatalf("expected ErrConfigInvalid when max_workers < initial_workers")
	}
}

func TestPool_AdmissionBoundNeverExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	cfg.MaxBacklog = 2
	cfg.SpinCount = 10
	cfg.ParkWait = 2 * time.Millisecond
	pool := newTestPool(t, cfg)

	items := make([]*WorkItem, 0, 3)
	var maxObserved int
	for i := 0; i < 3; i++ {
		item, err := pool.Enqueue(func() error {
			time.Sleep(50 * time.Millisecond)
			return nil
		})
		if err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
		items = append(items, item)
		if depth := pool.BacklogLen(); depth > maxObserved {
			maxObserved = depth
		}
		if depth := pool.BacklogLen(); depth > cfg.MaxBacklog {
			t.Fatalf("backlog depth %d exceeded max_backlog %d", depth, cfg.MaxBacklog)
		}
	}

	for _, item := range items {
		if err := item.Wait(); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if item.HadError() {
			t.Fatalf("item should complete without error")
		}
	}
}

func TestPool_StopIsIdempotentAndJoinsWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 3
	cfg.MaxWorkers = 3
	pool, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		if _, err := pool.Enqueue(func() error {
			defer wg.Done()
			time.Sleep(20 * time.Millisecond)
			return nil
		}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	wg.Wait()

	pool.Stop()
	pool.Stop() // idempotent

	if pool.WorkerCount() != 0 {
		t.Fatalf("WorkerCount() after Stop() = %d, want 0", pool.WorkerCount())
	}
	if pool.IsRunning() {
		t.Fatalf("IsRunning() after Stop() should be false")
	}
}

func TestPool_EnqueueAfterStopFailsWithShuttingDown(t *testing.T) {
	pool, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pool.Stop()

	if _, err := pool.Enqueue(func() error { return nil }); err != ErrShuttingDown {
		t.Fatalf("Enqueue after Stop() error = %v, want ErrShuttingDown", err)
	}
}

func TestEnqueueWithParam_PreservesParameterType(t *testing.T) {
	pool := newTestPool(t, DefaultConfig())

	var got string
	item, err := EnqueueWithParam(pool, "hello", func(s string) error {
		got = s
		return nil
	})
	if err != nil {
		t.Fatalf("EnqueueWithParam failed: %v", err)
	}
	if err := item.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("callable received %q, want %q", got, "hello")
	}
}

func TestPool_FIFOWithinSingleProducer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 1
	cfg.MaxWorkers = 1
	pool := newTestPool(t, cfg)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		idx := i
		if _, err := pool.Enqueue(func() error {
			defer wg.Done()
			mu.Lock()
			order = append(order, idx)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("dequeue order[%d] = %d, want %d (FIFO violated)", i, v, i)
		}
	}
}

func TestPool_WorkerPanicIsRecordedNotPropagated(t *testing.T) {
	pool := newTestPool(t, DefaultConfig())

	var ran int32
	item, err := pool.Enqueue(func() error {
		defer atomic.AddInt32(&ran, 1)
		panic("boom")
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := item.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !item.HadError() {
		t.Fatalf("panicking item should have HadError() true")
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("callable body should still have executed once")
	}
}

func TestPool_WorkersSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialWorkers = 2
	cfg.MaxWorkers = 2
	pool := newTestPool(t, cfg)

	workers := pool.Workers()
	if len(workers) != 2 {
		t.Fatalf("Workers() returned %d entries, want 2", len(workers))
	}
	for _, w := range workers {
		if w.ID == "" {
			t.Fatalf("worker snapshot missing ID")
		}
	}
}
