// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build linux
// +build linux

package affinity

import (
	"golang.org/x/sys/unix"
)

// linuxSetter pins via sched_setaffinity on the calling thread.
type linuxSetter struct{}

func newPlatformSetter() Setter {
	return linuxSetter{}
}

// Set pins the calling OS thread to core via sched_setaffinity(2). The
// caller must have called runtime.LockOSThread first.
func (linuxSetter) Set(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
