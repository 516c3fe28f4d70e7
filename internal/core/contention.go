// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

// ContentionStatus holds one caller's per-thread decision about whether to
// use the SNZI tree or dispatch directly on the root (spec §4.2, §4.5). It
// must never be shared between goroutines: each caller owns exactly one
// ContentionStatus and passes it by pointer into every Arrive/Depart call
// it makes on a full-contention tree.
//
// The switch from direct to tree-based dispatch is monotonic: once
// UseSNZIInArrive is latched true, nothing in this package clears it again
// (spec §4.5, §9 open policy question — no downgrade path is implemented).
type ContentionStatus struct {
	UseSNZIInArrive bool
	UseSNZIInDepart bool
	useSNZITreeFlag bool
}

// NewContentionStatus returns a ContentionStatus in its initial state: all
// flags clear, so the first Arrive/Depart pair goes directly through the
// root.
func NewContentionStatus() *ContentionStatus {
	return &ContentionStatus{}
}
