//go:build linux

package core

import (
	"time"

	"golang.org/x/sys/unix"
)

func init() {
	platformThreadCPUTime = linuxThreadCPUTime
}

// linuxThreadCPUTime reads the calling OS thread's accumulated CPU time via
// RUSAGE_THREAD. It is only meaningful when the calling goroutine has been
// pinned to its OS thread with runtime.LockOSThread, which WorkerSlot does
// for the lifetime of each callable invocation.
func linuxThreadCPUTime() (time.Duration, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		return 0, false
	}
	user := time.Duration(ru.Utime.Sec)*time.Second + time.Duration(ru.Utime.Usec)*time.Microsecond
	sys := time.Duration(ru.Stime.Sec)*time.Second + time.Duration(ru.Stime.Usec)*time.Microsecond
	return user + sys, true
}
