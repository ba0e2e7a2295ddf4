package activepool

import "github.com/flint-systems/activepool/core"

// WorkItem is the handle returned by an enqueue call. It tracks one
// callable's state machine through to completion: Pending, Running, and
// exactly one of CompletedOk, CompletedErr or Aborted.
type WorkItem = core.WorkItem

// ItemState enumerates a WorkItem's state machine.
type ItemState = core.ItemState

// WorkItem states.
const (
	StatePending      = core.StatePending
	StateRunning      = core.StateRunning
	StateCompletedOk  = core.StateCompletedOk
	StateCompletedErr = core.StateCompletedErr
	StateAborted      = core.StateAborted
)

// CompletionHook is invoked at most once, from the terminal transition
// that first marks a WorkItem complete.
type CompletionHook = core.CompletionHook

// WorkerInfo is a point-in-time snapshot of one worker goroutine,
// returned by Pool.Workers().
type WorkerInfo = core.WorkerInfo

// SlotState is a worker goroutine's reported activity.
type SlotState = core.SlotState

// Worker activity states.
const (
	SlotIdle      = core.SlotIdle
	SlotExecuting = core.SlotExecuting
)
