// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package core implements the SNZI tree (spec §2-§5): a perfect K-ary tree
// of height H whose root atomically summarizes whether the cumulative
// Arrive count across all leaves exceeds the cumulative Depart count.
//
// A single Tree type is parameterized by a Variant tag rather than
// duplicated per contention strategy (spec §9): the node protocol branches
// on the variant only where the strategies actually differ (the announce
// bit and its 16-iteration suppression wait). The three public wrapper
// types in variants.go give each variant its own Arrive/Depart/Query
// surface, matching the reference implementation's three classes.
package core

import (
	"time"

	"github.com/kianostad/snzi/internal/monitoring/metrics"
)

// Variant identifies which contention-handling strategy a Tree's non-root
// nodes use.
type Variant int

const (
	// NoContention is the base protocol of spec §4.3: no announce bit,
	// every zero-to-nonzero transition escalates to the parent.
	NoContention Variant = iota
	// SemiContention adds the announce bit of spec §4.4 to suppress
	// redundant parent escalations from concurrent arrivers on the same
	// node.
	SemiContention
	// FullContention uses the same node protocol as SemiContention but
	// additionally lets each caller bypass the tree entirely via a
	// per-caller ContentionStatus (spec §4.5).
	FullContention
)

// Tree is the shared SNZI object: one root plus an array of non-root
// nodes, indexed 1..nodesCount-1 (index 0 is reserved for the root so
// that a node's parent index of 0 unambiguously means "the root").
type Tree struct {
	arity          int
	height         int
	threads        int
	nodes          int // total node count, including the root
	leaves         int
	threadsPerLeaf int
	variant        Variant

	root  rootNode
	other []node // other[0] is unused; other[i] is node i for i >= 1

	metrics *metrics.Metrics // optional; nil unless SetMetrics was called
}

// SetMetrics attaches a metrics collector to the tree. Every subsequent
// Arrive/Depart/Query call records its outcome through m. Passing nil
// detaches the current collector. SetMetrics is not itself safe to call
// concurrently with Arrive/Depart/Query; attach a collector once, before
// a tree is handed to other goroutines.
func (t *Tree) SetMetrics(m *metrics.Metrics) {
	t.metrics = m
}

// NewTree constructs a SNZI tree of arity K, height H, built to serve T
// distinct caller identifiers, using the given contention-handling
// variant. It returns ErrInvalidArity if K < 2 (spec §3 invariant 5, §4.7).
func NewTree(k, h, t int, variant Variant) (*Tree, error) {
	if k < 2 {
		return nil, ErrInvalidArity
	}

	n := nodesCount(k, h)
	l := leavesCount(k, h)
	tpl := computeThreadsPerLeaf(t, l)

	tree := &Tree{
		arity:          k,
		height:         h,
		threads:        t,
		nodes:          n,
		leaves:         l,
		threadsPerLeaf: tpl,
		variant:        variant,
		other:          make([]node, n),
	}

	for i := 1; i < n; i++ {
		tree.other[i].parent = parentOf(i, k)
	}

	return tree, nil
}

// NodesCount returns the total number of nodes in the tree, including the
// root.
func (t *Tree) NodesCount() int { return t.nodes }

// LeavesCount returns the number of leaf nodes in the tree.
func (t *Tree) LeavesCount() int { return t.leaves }

// ThreadsPerLeaf returns ceil(T/L), the number of caller identifiers
// mapped to each leaf.
func (t *Tree) ThreadsPerLeaf() int { return t.threadsPerLeaf }

// GetLeafForThread returns the leaf node index assigned to tid (spec §4.1).
func (t *Tree) GetLeafForThread(tid int) int {
	return leafForThread(tid, t.nodes, t.leaves, t.threadsPerLeaf)
}

// arriveAt dispatches Arrive to the root if idx is 0, otherwise to the
// interior/leaf node at idx.
func (t *Tree) arriveAt(idx int) {
	if idx == 0 {
		t.root.arrive()
		return
	}
	t.other[idx].arrive(t)
}

// departAt dispatches Depart to the root if idx is 0, otherwise to the
// interior/leaf node at idx.
func (t *Tree) departAt(idx int) {
	if idx == 0 {
		t.root.depart()
		return
	}
	t.other[idx].depart(t)
}

// Arrive declares tid's presence by escalating through its assigned leaf
// (spec §4.1). Used by the NoContention and SemiContention variants; the
// FullContention variant dispatches through Tree.ArriveFull instead.
func (t *Tree) Arrive(tid int) {
	if t.metrics == nil {
		t.arriveAt(t.GetLeafForThread(tid))
		return
	}
	start := time.Now()
	t.arriveAt(t.GetLeafForThread(tid))
	t.metrics.RecordArrive(time.Since(start))
}

// Depart declares tid's departure, matching a prior Arrive(tid).
func (t *Tree) Depart(tid int) {
	if t.metrics == nil {
		t.departAt(t.GetLeafForThread(tid))
		return
	}
	start := time.Now()
	t.departAt(t.GetLeafForThread(tid))
	t.metrics.RecordDepart(time.Since(start))
}

// Query reports whether the root counter is non-zero: whether there is a
// surplus of completed Arrive calls over completed Depart calls.
func (t *Tree) Query() bool {
	if t.metrics == nil {
		return t.root.query()
	}
	start := time.Now()
	result := t.root.query()
	t.metrics.RecordQuery(time.Since(start))
	return result
}

// ArriveFull is the FullContention variant's caller-facing Arrive: it
// bypasses the tree entirely while cs.UseSNZIInArrive is false, and
// escalates through the assigned leaf once that flag has latched true
// (spec §4.5).
func (t *Tree) ArriveFull(tid int, cs *ContentionStatus) {
	if !cs.UseSNZIInArrive {
		failures := t.root.arriveDirectly(cs)
		if t.metrics != nil {
			for i := 0; i < failures; i++ {
				t.metrics.RecordRootCASFailure()
			}
		}
		return
	}
	t.arriveAt(t.GetLeafForThread(tid))
}

// DepartFull is the FullContention variant's caller-facing Depart,
// mirroring ArriveFull's dispatch decision.
func (t *Tree) DepartFull(tid int, cs *ContentionStatus) {
	if !cs.UseSNZIInDepart {
		latched := t.root.departDirectly(cs)
		if latched && t.metrics != nil {
			t.metrics.RecordTreeDispatchLatch()
		}
		return
	}
	t.departAt(t.GetLeafForThread(tid))
}
