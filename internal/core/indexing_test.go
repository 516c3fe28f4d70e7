// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import "testing"

func TestNodesAndLeavesCount(t *testing.T) {
	cases := []struct {
		k, h       int
		wantNodes  int
		wantLeaves int
	}{
		{2, 0, 1, 1},
		{2, 1, 3, 2},
		{2, 2, 7, 4},
		{4, 1, 5, 4},
		{3, 2, 13, 9},
	}

	for _, c := range cases {
		if got := nodesCount(c.k, c.h); got != c.wantNodes {
			t.Errorf("nodesCount(%d,%d) = %d, want %d", c.k, c.h, got, c.wantNodes)
		}
		if got := leavesCount(c.k, c.h); got != c.wantLeaves {
			t.Errorf("leavesCount(%d,%d) = %d, want %d", c.k, c.h, got, c.wantLeaves)
		}
	}
}

func TestThreadsPerLeaf(t *testing.T) {
	cases := []struct {
		t, leaves int
		want      int
	}{
		{4, 1, 4},
		{4, 2, 2},
		{8, 4, 2},
		{1, 4, 1},
		{9, 4, 3},
	}

	for _, c := range cases {
		if got := computeThreadsPerLeaf(c.t, c.leaves); got != c.want {
			t.Errorf("computeThreadsPerLeaf(%d,%d) = %d, want %d", c.t, c.leaves, got, c.want)
		}
	}
}

func TestLeafForThread(t *testing.T) {
	// K=2, H=1, T=4 => N=3, L=2, threadsPerLeaf=2
	nodes, leaves, tpl := 3, 2, 2
	want := map[int]int{0: 1, 1: 1, 2: 2, 3: 2}
	for tid, exp := range want {
		if got := leafForThread(tid, nodes, leaves, tpl); got != exp {
			t.Errorf("leafForThread(%d) = %d, want %d", tid, got, exp)
		}
	}
}

func TestParentOf(t *testing.T) {
	// K=2 tree: node 1,2 are children of root(0); node 3,4 children of 1; node 5,6 children of 2
	k := 2
	cases := map[int]int{1: 0, 2: 0, 3: 1, 4: 1, 5: 2, 6: 2}
	for i, want := range cases {
		if got := parentOf(i, k); got != want {
			t.Errorf("parentOf(%d) = %d, want %d", i, got, want)
		}
	}
}
