// Licensed under the MIT License. See LICENSE file in the project root for details.

package snzi

import (
	"testing"

	"pgregory.net/rapid"
)

// operation is a single sequential Arrive or Depart call against caller tid.
type operation struct {
	Op  string
	Tid int
}

// model tracks, for a sequential history, whether any caller currently has
// an unmatched Arrive — the same question Query answers.
type model struct {
	outstanding map[int]int
}

func newModel() *model {
	return &model{outstanding: make(map[int]int)}
}

func (m *model) arrive(tid int) { m.outstanding[tid]++ }

func (m *model) depart(tid int) {
	if m.outstanding[tid] > 0 {
		m.outstanding[tid]--
	}
}

func (m *model) nonzero() bool {
	for _, n := range m.outstanding {
		if n > 0 {
			return true
		}
	}
	return false
}

// TestPropertySequentialArriveDepartMatchesModel checks that, for any
// sequential (non-concurrent) history of Arrive/Depart calls generated
// from a small caller pool, a no-contention tree's Query agrees with a
// reference model tracking net Arrive-minus-Depart per caller. This is
// the round-trip law spec §8 describes for the base protocol: a balanced
// Arrive/Depart sequence always settles back to Query() == false, and an
// unbalanced one always reports true.
func TestPropertySequentialArriveDepartMatchesModel(t *testing.T) {
	const callers = 4

	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.SliceOf(rapid.Custom(func(t *rapid.T) operation {
			op := rapid.OneOf(rapid.Just("arrive"), rapid.Just("depart")).Draw(t, "op")
			tid := rapid.IntRange(0, callers-1).Draw(t, "tid")
			return operation{Op: op, Tid: tid}
		})).Draw(t, "operations")

		tree, err := NewNoContention(2, 2, callers)
		if err != nil {
			t.Fatalf("NewNoContention: %v", err)
		}
		m := newModel()

		for _, op := range ops {
			switch op.Op {
			case "arrive":
				tree.Arrive(op.Tid)
				m.arrive(op.Tid)
			case "depart":
				// Only depart if the model has an outstanding arrival for
				// this tid, matching the reference implementation's
				// invariant that Depart always matches a prior Arrive.
				if m.outstanding[op.Tid] > 0 {
					tree.Depart(op.Tid)
					m.depart(op.Tid)
				}
			}
		}

		if got, want := tree.Query(), m.nonzero(); got != want {
			t.Fatalf("Query() = %v, model nonzero = %v, after ops %v", got, want, ops)
		}
	})
}

// TestPropertyLeafMappingIsDeterministic checks that GetLeafForThread is a
// pure function of (K, H, T) and tid: calling it twice for the same inputs
// always returns the same leaf index.
func TestPropertyLeafMappingIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(2, 5).Draw(t, "k")
		h := rapid.IntRange(0, 4).Draw(t, "h")
		threads := rapid.IntRange(1, 64).Draw(t, "threads")

		tree, err := NewNoContention(k, h, threads)
		if err != nil {
			t.Fatalf("NewNoContention: %v", err)
		}

		tid := rapid.IntRange(0, threads-1).Draw(t, "tid")
		first := tree.Tree().GetLeafForThread(tid)
		second := tree.Tree().GetLeafForThread(tid)
		if first != second {
			t.Fatalf("GetLeafForThread(%d) not deterministic: %d vs %d", tid, first, second)
		}
	})
}
