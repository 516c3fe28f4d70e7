// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backoff provides a stack-local exponential backoff helper used by
// the SNZI node protocols (spec §4.6) to reduce CAS contention without
// blocking.
//
// Each call to Backoff busy-waits a doubling number of hardware pause hints,
// up to a cap of 16 tries, after which it yields the goroutine to the Go
// scheduler instead of spinning further. This mirrors the reference
// implementation's exponential_backoff class, which spins with the x86
// PAUSE instruction and falls back to std::this_thread::yield().
package backoff

import (
	"runtime"
	"sync/atomic"
)

// MaxTries is the largest pause count Backoff spins for; once the doubled
// count exceeds it (after 1, 2, 4, 8, 16), Backoff yields the goroutine.
const MaxTries = 16

// Backoff is a stack-local, non-shared object: create one per call site,
// never share it across goroutines.
type Backoff struct {
	tries int
}

// New returns a Backoff ready for its first call.
func New() *Backoff {
	return &Backoff{tries: 1}
}

// Backoff busy-waits for an increasing number of pause hints, doubling the
// wait on each call, and yields to the scheduler once the cap is exceeded.
func (b *Backoff) Backoff() {
	if b.tries <= MaxTries {
		spin(b.tries)
		b.tries *= 2
		return
	}
	runtime.Gosched()
}

// Reset restores the backoff to its initial state, for reuse across
// unrelated contention episodes within the same call site.
func (b *Backoff) Reset() {
	b.tries = 1
}

// spin busy-waits delay iterations without yielding to the scheduler. Pure
// Go has no portable PAUSE intrinsic, so each iteration touches a throwaway
// atomic counter; the real atomic store keeps the compiler from eliminating
// the loop and gives the same effect as the reference implementation's
// inline-asm "pause" hint — relax the core without giving up the P.
func spin(delay int) {
	var dummy atomic.Uint64
	for i := 0; i < delay; i++ {
		dummy.Add(1)
	}
}
