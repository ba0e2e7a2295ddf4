package activepool

import "github.com/flint-systems/activepool/core"

// ErrConfigInvalid is returned from New when the supplied Config violates
// a construction-time constraint.
var ErrConfigInvalid = core.ErrConfigInvalid

// ErrShuttingDown is returned by admission, wait and batch operations
// that observe the pool transitioning to or already in the stopped
// state.
var ErrShuttingDown = core.ErrShuttingDown

// ItemError wraps the error returned or panicked by a user callable.
type ItemError = core.ItemError

// AggregateError bundles the errors of every failed item in a
// ChildPool's tracked set, raised only from ChildPool.ThrowAggregate.
type AggregateError = core.AggregateError

// Logger is the structured logging surface a Pool reports lifecycle
// events through.
type Logger = core.Logger

// Field is a single key-value pair attached to a log line.
type Field = core.Field

// F builds a Field.
func F(key string, value any) Field { return core.F(key, value) }

// DefaultLogger writes through the standard log package.
type DefaultLogger = core.DefaultLogger

// NoOpLogger discards everything; it is the default Logger.
type NoOpLogger = core.NoOpLogger

// NewDefaultLogger creates a DefaultLogger.
func NewDefaultLogger() *DefaultLogger { return core.NewDefaultLogger() }

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger { return core.NewNoOpLogger() }

// Metrics is the observability surface a Pool reports through.
type Metrics = core.Metrics

// NilMetrics is a no-op Metrics implementation; it is the default.
type NilMetrics = core.NilMetrics

// PanicHandler is invoked when a user callable panics during execution.
type PanicHandler = core.PanicHandler

// DefaultPanicHandler reports panic information through a Logger.
type DefaultPanicHandler = core.DefaultPanicHandler

// NewDefaultPanicHandler creates a DefaultPanicHandler that logs through
// logger, or through a DefaultLogger if logger is nil.
func NewDefaultPanicHandler(logger Logger) *DefaultPanicHandler {
	return core.NewDefaultPanicHandler(logger)
}
