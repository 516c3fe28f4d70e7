// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import (
	"sync/atomic"

	"github.com/kianostad/snzi/internal/concurrency/backoff"
)

// cacheLineSize governs the alignment of every atomic counter and announce
// flag in the tree (spec §6). Padding each node's fields to their own
// cache line is load-bearing for throughput under contention, not an
// optimization to be trimmed.
const cacheLineSize = 64

// maxContentionFailures is the number of consecutive CAS failures on the
// root's direct path that causes the full-contention variant to latch onto
// the tree for good (spec §4.2).
const maxContentionFailures = 5

// rootNode is the single shared atomic counter at the top of the tree. Its
// non-zero status is the answer to Query.
type rootNode struct {
	_ [cacheLineSize]byte // keep the fields before the root off x's cache line
	x atomic.Uint64
	_ [cacheLineSize - 8]byte // isolate x on its own cache line
}

// arrive performs the root's unconditional Arrive: a single atomic
// increment, no CAS loop and no backoff (spec §4.2).
func (r *rootNode) arrive() {
	r.x.Add(1)
}

// depart performs the root's unconditional Depart: a single atomic
// decrement.
func (r *rootNode) depart() {
	r.x.Add(^uint64(0))
}

// query reports whether the root counter is non-zero.
func (r *rootNode) query() bool {
	return r.x.Load() != 0
}

// arriveDirectly is the full-contention variant's contention-tracking
// arrival: a CAS loop with exponential backoff directly on the root,
// counting failures and latching cs.useSNZITreeFlag once the failure
// threshold is reached (spec §4.2). It returns the number of failed CAS
// attempts so the caller can report them to the metrics package without
// rootNode needing to know that package exists.
func (r *rootNode) arriveDirectly(cs *ContentionStatus) int {
	oldX := r.x.Load()
	b := backoff.New()
	failures := 0

	for !r.x.CompareAndSwap(oldX, oldX+1) {
		failures++
		b.Backoff()
		oldX = r.x.Load()
	}

	if failures >= maxContentionFailures {
		cs.useSNZITreeFlag = true
	}

	return failures
}

// departDirectly is an atomic decrement followed by the monotonic
// escalation to tree-based dispatch once the caller's contention flag has
// been set by a prior arriveDirectly (spec §4.2). There is no downgrade
// path back to direct dispatch. It reports whether this call is the one
// that performed the latch.
func (r *rootNode) departDirectly(cs *ContentionStatus) (latched bool) {
	r.depart()
	if cs.useSNZITreeFlag && !cs.UseSNZIInArrive {
		cs.UseSNZIInArrive = true
		cs.UseSNZIInDepart = true
		latched = true
	}
	return latched
}
