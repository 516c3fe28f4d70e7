// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import (
	"sync/atomic"

	"github.com/kianostad/snzi/internal/concurrency/backoff"
)

// announceBackoffIterations is the number of backoff iterations a node
// spins while an escalation is already announced, re-reading X on each
// iteration to see if the counter turned non-zero before it races the
// announcing caller to the parent (spec §4.4).
const announceBackoffIterations = 16

// node is a non-root node of the tree: an interior node or a leaf. Arrive
// and Depart are shared by the semi- and full-contention variants (which
// both use the announce bit) and degrade to the simpler no-contention
// protocol when the owning tree's variant is NoContention.
//
// x and announce each occupy their own cache line so that two callers
// escalating through sibling nodes never false-share.
type node struct {
	x        atomic.Uint64
	_        [cacheLineSize - 8]byte
	announce atomic.Bool
	_        [cacheLineSize - 1]byte
	parent   int // index of the parent node; 0 means the root
	_        [cacheLineSize - 8]byte
}

// arrive implements the interior/leaf Arrive protocol of spec §4.3/§4.4.
// For the NoContention variant the announce bit is never consulted, which
// reduces exactly to §4.3's base protocol.
func (n *node) arrive(t *Tree) {
	parentArriveInvoked := false
	oldX := n.x.Load()

	for {
		if oldX == 0 && !parentArriveInvoked {
			doArrive := true

			if t.variant != NoContention && n.announce.Load() {
				b := backoff.New()
				for i := 0; i < announceBackoffIterations; i++ {
					oldX = n.x.Load()
					if oldX != 0 {
						doArrive = false
						if t.metrics != nil {
							t.metrics.RecordAnnounceSuppression()
						}
						break
					}
					b.Backoff()
				}
			}

			if doArrive {
				if t.variant != NoContention {
					n.announce.Store(true)
				}
				t.arriveAt(n.parent)
				parentArriveInvoked = true
			}
		}

		if n.x.CompareAndSwap(oldX, oldX+1) {
			break
		}
		oldX = n.x.Load()
	}

	if parentArriveInvoked && oldX != 0 {
		// The speculative parent-Arrive turned out to be unnecessary:
		// by the time our CAS won, another arrival had already made
		// X non-zero. Compensate with a matching parent Depart.
		t.departAt(n.parent)
	}
}

// depart implements the interior/leaf Depart protocol of spec §4.3/§4.4.
// The semi/full variants clear the announce bit exactly when the counter
// is about to transition to zero, before attempting the CAS that performs
// that transition.
func (n *node) depart(t *Tree) {
	oldX := n.x.Load()

	for {
		if oldX == 1 && t.variant != NoContention {
			n.announce.Store(false)
		}
		if n.x.CompareAndSwap(oldX, oldX-1) {
			break
		}
		oldX = n.x.Load()
	}

	if oldX == 1 {
		t.departAt(n.parent)
	}
}
