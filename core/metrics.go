package core

import (
	"time"
)

// PanicHandler is invoked when a user callable panics during execution, in
// addition to the panic being captured as the WorkItem's error. This hook
// exists purely for side-channel diagnostics (logging, crash reporting);
// it cannot affect the item's outcome.
type PanicHandler interface {
	HandlePanic(poolID string, workerID string, itemName string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler reports panic information through a Logger. Every
// panic is logged at error level, never printed directly, so a program
// that wires a structured Logger gets structured panic reports too.
type DefaultPanicHandler struct {
	Logger Logger
}

// NewDefaultPanicHandler creates a DefaultPanicHandler. logger may be nil,
// in which case panics are reported through a DefaultLogger so they
// remain visible even when the caller hasn't wired one of their own.
func NewDefaultPanicHandler(logger Logger) *DefaultPanicHandler {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &DefaultPanicHandler{Logger: logger}
}

func (h *DefaultPanicHandler) HandlePanic(poolID, workerID, itemName string, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("callable panicked",
		F("pool", poolID),
		F("worker", workerID),
		F("item", itemName),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// Metrics is the observability surface a Pool reports through. All methods
// must be non-blocking and safe for concurrent use; the default NilMetrics
// makes wiring a Metrics implementation fully optional.
type Metrics interface {
	// RecordItemDuration records the wall-clock and (if available)
	// CPU time an item spent executing.
	RecordItemDuration(poolID string, wall time.Duration, cpu time.Duration, cpuAvailable bool)

	// RecordItemOutcome records the terminal state an item reached.
	RecordItemOutcome(poolID string, outcome string)

	// RecordBacklogDepth records the current number of pending items.
	RecordBacklogDepth(poolID string, depth int)

	// RecordWorkerCount records the current number of live WorkerSlots.
	RecordWorkerCount(poolID string, count int)

	// RecordGrow records that the SizingController added a worker.
	RecordGrow(poolID string, newCount int)

	// RecordShrink records that the SizingController retired a worker.
	RecordShrink(poolID string, newCount int)

	// RecordRejected records that an operation failed with ErrShuttingDown.
	RecordRejected(poolID string, reason string)
}

// NilMetrics is a no-op Metrics implementation; it is the default.
type NilMetrics struct{}

func (m *NilMetrics) RecordItemDuration(poolID string, wall, cpu time.Duration, cpuAvailable bool) {}
func (m *NilMetrics) RecordItemOutcome(poolID string, outcome string)                              {}
func (m *NilMetrics) RecordBacklogDepth(poolID string, depth int)                                  {}
func (m *NilMetrics) RecordWorkerCount(poolID string, count int)                                   {}
func (m *NilMetrics) RecordGrow(poolID string, newCount int)                                       {}
func (m *NilMetrics) RecordShrink(poolID string, newCount int)                                     {}
func (m *NilMetrics) RecordRejected(poolID string, reason string)                                  {}
