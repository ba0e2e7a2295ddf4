package core

import "time"

// CPU-time-per-thread is an optional capability: the host platform may or
// may not be able to report how much CPU time the OS thread backing a
// WorkerSlot has consumed. Where unavailable, cpu_duration is left unset
// and totals simply omit it; every other behavior of the pool is
// unaffected. See cputime_linux.go / cputime_other.go for the concrete
// per-platform implementations, gated by build tags.
//
// platformThreadCPUTime must be called from the same OS thread the
// measurement applies to; WorkerSlot arranges this with
// runtime.LockOSThread before invoking any callable (see workerslot.go).
var platformThreadCPUTime func() (time.Duration, bool)

func sampleThreadCPUTime() (time.Duration, bool) {
	if platformThreadCPUTime == nil {
		return 0, false
	}
	return platformThreadCPUTime()
}
