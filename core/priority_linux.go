//go:build linux

package core

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func init() {
	platformSetWorkerPriority = linuxSetWorkerPriority
}

// niceValues maps WorkerPriority to a Linux nice value. Lower is higher
// scheduling priority; the range [-20, 19] is what setpriority(2) accepts
// for ordinary (non-realtime) scheduling.
var niceValues = map[WorkerPriority]int{
	PriorityLow:         10,
	PriorityNormal:      0,
	PriorityAboveNormal: -5,
	PriorityHigh:        -10,
	PriorityRealtime:    -20,
}

// linuxSetWorkerPriority renices the calling OS thread. The caller must
// have already called runtime.LockOSThread so the adjustment lands on the
// thread backing the current WorkerSlot rather than an arbitrary one.
// Lacking CAP_SYS_NICE, raising priority fails with EPERM; that failure is
// reported to the caller and otherwise does not affect item execution.
func linuxSetWorkerPriority(priority WorkerPriority) error {
	nice, ok := niceValues[priority]
	if !ok {
		return fmt.Errorf("activepool: unknown worker priority %v", priority)
	}
	tid := unix.Gettid()
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, nice); err != nil {
		return fmt.Errorf("activepool: setpriority(tid=%d, nice=%d): %w", tid, nice, err)
	}
	return nil
}
