package core

import (
	"fmt"
	"runtime"
	"time"
)

// WorkerPriority is the OS-scheduling priority hint for a pool's worker
// threads. It has no effect unless the host platform exposes a concrete
// mapping (see priority_linux.go); elsewhere it is stored but inert.
type WorkerPriority int

const (
	PriorityLow WorkerPriority = iota
	PriorityNormal
	PriorityAboveNormal
	PriorityHigh
	PriorityRealtime
)

func (p WorkerPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityAboveNormal:
		return "above_normal"
	case PriorityHigh:
		return "high"
	case PriorityRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Config is the frozen configuration of a Pool. It is validated once, at
// construction, and never mutated afterward.
type Config struct {
	// InitialWorkers is the number of WorkerSlots spawned at construction.
	// Defaults to the logical CPU count.
	InitialWorkers int

	// MaxWorkers bounds how far the SizingController may grow the pool.
	// Defaults to 4x the logical CPU count. Must be >= InitialWorkers.
	MaxWorkers int

	// Priority is the OS scheduling hint applied to each worker thread.
	Priority WorkerPriority

	// Detached, if true, marks worker goroutines as not blocking process
	// exit. Go's runtime never blocks process exit on live goroutines, so
	// this is recorded for API parity but has no runtime effect.
	Detached bool

	// MaxBacklog bounds the number of pending items. 0 means unbounded.
	// Negative values are rejected at construction.
	MaxBacklog int

	// SpinCount is how many times a producer or worker busy-checks before
	// parking.
	SpinCount int

	// ParkWait bounds how long a single park wait lasts before the
	// predicate (keep_running, new work, completion) is re-checked.
	ParkWait time.Duration

	// GrowOverloadMin is the initial overload-persistence threshold before
	// the SizingController adds a worker.
	GrowOverloadMin time.Duration

	// GrowOverloadMax caps the overload-persistence threshold after
	// repeated back-to-back growths.
	GrowOverloadMax time.Duration

	// GrowOverloadFactor is the multiplier applied to the threshold after
	// each growth.
	GrowOverloadFactor float64

	// ShrinkIdle is how long the pool must observe sustained underload
	// before a worker is retired.
	ShrinkIdle time.Duration

	// TickInterval is the SizingController's polling period.
	TickInterval time.Duration

	// Logger receives lifecycle events. Defaults to NoOpLogger.
	Logger Logger

	// Metrics receives per-item and per-pool measurements. Defaults to
	// NilMetrics.
	Metrics Metrics

	// PanicHandler is invoked when a callable panics, in addition to the
	// panic being captured as the item's error. Defaults to
	// DefaultPanicHandler (logs only).
	PanicHandler PanicHandler
}

// DefaultConfig returns a Config with every field set to its documented
// default. Callers typically start from this and override select fields.
func DefaultConfig() Config {
	cpus := runtime.NumCPU()
	return Config{
		InitialWorkers:     cpus,
		MaxWorkers:         cpus * 4,
		Priority:           PriorityNormal,
		Detached:           false,
		MaxBacklog:         0,
		SpinCount:          100,
		ParkWait:           time.Millisecond,
		GrowOverloadMin:    100 * time.Millisecond,
		GrowOverloadMax:    6400 * time.Millisecond,
		GrowOverloadFactor: 2,
		ShrinkIdle:         30 * time.Second,
		TickInterval:       100 * time.Millisecond,
		Logger:             NewNoOpLogger(),
		Metrics:            &NilMetrics{},
		PanicHandler:       NewDefaultPanicHandler(nil),
	}
}

// normalize fills zero-valued fields with defaults and validates the
// result. It never mutates the receiver's caller-visible semantics beyond
// filling gaps: an explicit non-zero field is always honored as given.
func (c Config) normalize() (Config, error) {
	d := DefaultConfig()

	if c.InitialWorkers == 0 {
		c.InitialWorkers = d.InitialWorkers
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.SpinCount == 0 {
		c.SpinCount = d.SpinCount
	}
	if c.ParkWait == 0 {
		c.ParkWait = d.ParkWait
	}
	if c.GrowOverloadMin == 0 {
		c.GrowOverloadMin = d.GrowOverloadMin
	}
	if c.GrowOverloadMax == 0 {
		c.GrowOverloadMax = d.GrowOverloadMax
	}
	if c.GrowOverloadFactor == 0 {
		c.GrowOverloadFactor = d.GrowOverloadFactor
	}
	if c.ShrinkIdle == 0 {
		c.ShrinkIdle = d.ShrinkIdle
	}
	if c.TickInterval == 0 {
		c.TickInterval = d.TickInterval
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Metrics == nil {
		c.Metrics = d.Metrics
	}
	if c.PanicHandler == nil {
		c.PanicHandler = d.PanicHandler
	}

	if c.InitialWorkers < 1 {
		return c, fmt.Errorf("%w: initial_workers must be >= 1, got %d", ErrConfigInvalid, c.InitialWorkers)
	}
	if c.MaxWorkers < c.InitialWorkers {
		return c, fmt.Errorf("%w: max_workers (%d) must be >= initial_workers (%d)", ErrConfigInvalid, c.MaxWorkers, c.InitialWorkers)
	}
	if c.MaxBacklog < 0 {
		return c, fmt.Errorf("%w: max_backlog must be >= 0, got %d", ErrConfigInvalid, c.MaxBacklog)
	}
	if c.SpinCount < 0 {
		return c, fmt.Errorf("%w: spin_count must be >= 0, got %d", ErrConfigInvalid, c.SpinCount)
	}
	if c.GrowOverloadMin <= 0 || c.GrowOverloadMax <= 0 {
		return c, fmt.Errorf("%w: grow_overload_min_ms and grow_overload_max_ms must be > 0", ErrConfigInvalid)
	}
	if c.GrowOverloadMax < c.GrowOverloadMin {
		return c, fmt.Errorf("%w: grow_overload_max_ms must be >= grow_overload_min_ms", ErrConfigInvalid)
	}
	if c.GrowOverloadFactor < 1 {
		return c, fmt.Errorf("%w: grow_overload_factor must be >= 1", ErrConfigInvalid)
	}

	return c, nil
}
