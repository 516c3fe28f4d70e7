// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package snzi provides a concurrent Scalable NonZero Indicator (SNZI).
//
// A SNZI answers one question — "is the number of Arrive calls that
// haven't yet had a matching Depart call greater than zero?" — without
// forcing every caller through a single contended counter. It does this
// by spreading Arrive/Depart load across a tree of counters, escalating
// to the parent only on a zero-to-nonzero (or nonzero-to-zero) transition,
// so that Query, which only ever reads the root, sees a cheap and
// consistent answer while most Arrive/Depart traffic stays local to a
// leaf.
//
// # Quick Start
//
//	import "github.com/kianostad/snzi"
//
//	s, err := snzi.NewSemiContention(2, 3, 64) // K=2, H=3, 64 callers
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s.Arrive(tid)
//	defer s.Depart(tid)
//
//	if s.Query() {
//	    // at least one caller has arrived without a matching depart
//	}
//
// # Choosing a Variant
//
//   - NoContention: no announce bit, simplest protocol. Use when callers
//     rarely race on the same leaf.
//   - SemiContention: adds an announce bit per node to suppress redundant
//     escalations when several callers race on the same leaf (the
//     recommended default).
//   - FullContention: lets each caller adaptively bypass the tree and
//     dispatch directly on the root until sustained contention latches it
//     onto tree-based dispatch. Requires the caller to own a
//     ContentionStatus per goroutine.
//
// # Thread Safety
//
// Arrive, Depart and Query are safe for concurrent use by any number of
// goroutines. A caller identifier (tid) is not itself synchronized: the
// caller is responsible for ensuring each tid's Arrive/Depart calls are
// not issued concurrently with each other by two different goroutines
// claiming the same tid.
//
// # See Also
//
// For the tree's node/parent mapping and the per-variant protocols, see
// the internal/core package.
package snzi

import (
	"github.com/kianostad/snzi/internal/core"
	"github.com/kianostad/snzi/internal/monitoring/metrics"
)

// ErrInvalidArity is returned by every constructor when K < 2.
var ErrInvalidArity = core.ErrInvalidArity

// ContentionStatus holds one caller's dispatch decision for a
// FullContention tree. It must not be shared between goroutines.
type ContentionStatus = core.ContentionStatus

// NewContentionStatus returns a ContentionStatus in its initial state.
func NewContentionStatus() *ContentionStatus {
	return core.NewContentionStatus()
}

// Metrics collects operation latencies and contention-handling events for
// a tree, without being on any tree's hot path (see internal/monitoring/metrics).
type Metrics = metrics.Metrics

// NewMetrics creates a Metrics collector with a default configuration.
func NewMetrics() *Metrics {
	return metrics.NewMetrics()
}

// NoContentionSNZI is the base SNZI variant: every zero-to-nonzero
// transition on a node escalates to its parent, with no suppression of
// redundant escalations.
type NoContentionSNZI = core.NoContentionSNZI

// NewNoContention constructs a no-contention SNZI tree of arity K, height
// H, serving T caller identifiers.
func NewNoContention(k, h, t int) (*NoContentionSNZI, error) {
	return core.NewNoContentionSNZI(k, h, t)
}

// SemiContentionSNZI adds an announce bit per node to suppress redundant
// parent escalations from concurrent arrivers on the same node.
type SemiContentionSNZI = core.SemiContentionSNZI

// NewSemiContention constructs a semi-contention SNZI tree of arity K,
// height H, serving T caller identifiers.
func NewSemiContention(k, h, t int) (*SemiContentionSNZI, error) {
	return core.NewSemiContentionSNZI(k, h, t)
}

// FullContentionSNZI lets each caller adaptively choose, via its own
// ContentionStatus, between dispatching directly on the root or escalating
// through the tree.
type FullContentionSNZI = core.FullContentionSNZI

// NewFullContention constructs a full-contention SNZI tree of arity K,
// height H, serving T caller identifiers.
func NewFullContention(k, h, t int) (*FullContentionSNZI, error) {
	return core.NewFullContentionSNZI(k, h, t)
}
