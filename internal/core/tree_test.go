// Licensed under the MIT License. See LICENSE file in the project root for details.

package core

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConstructionRejectsInvalidArity(t *testing.T) {
	Convey("Given K=1", t, func() {
		_, err := NewTree(1, 0, 4, NoContention)

		Convey("Construction fails with ErrInvalidArity", func() {
			So(err, ShouldEqual, ErrInvalidArity)
		})
	})
}

func TestConstructionBounds(t *testing.T) {
	Convey("Given K=2, H=0, T=4", t, func() {
		tree, err := NewTree(2, 0, 4, NoContention)
		So(err, ShouldBeNil)

		Convey("N=1, L=1, threadsPerLeaf=4", func() {
			So(tree.NodesCount(), ShouldEqual, 1)
			So(tree.LeavesCount(), ShouldEqual, 1)
			So(tree.ThreadsPerLeaf(), ShouldEqual, 4)
		})

		Convey("Every thread maps to leaf 0", func() {
			for tid := 0; tid < 4; tid++ {
				So(tree.GetLeafForThread(tid), ShouldEqual, 0)
			}
		})

		Convey("A balanced arrive/depart sequence leaves Query false", func() {
			tree.Arrive(0)
			tree.Arrive(1)
			tree.Depart(0)
			tree.Depart(1)
			So(tree.Query(), ShouldBeFalse)
		})
	})
}

func TestSurplusDetection(t *testing.T) {
	Convey("Given K=2, H=0, T=4", t, func() {
		tree, err := NewTree(2, 0, 4, NoContention)
		So(err, ShouldBeNil)

		Convey("After a single Arrive, Query is true", func() {
			tree.Arrive(0)
			So(tree.Query(), ShouldBeTrue)

			Convey("After the matching Depart, Query is false again", func() {
				tree.Depart(0)
				So(tree.Query(), ShouldBeFalse)
			})
		})
	})
}

func TestBalancedEscalationMapping(t *testing.T) {
	Convey("Given K=2, H=1, T=4", t, func() {
		tree, err := NewTree(2, 1, 4, NoContention)
		So(err, ShouldBeNil)

		Convey("N=3, L=2, threadsPerLeaf=2", func() {
			So(tree.NodesCount(), ShouldEqual, 3)
			So(tree.LeavesCount(), ShouldEqual, 2)
			So(tree.ThreadsPerLeaf(), ShouldEqual, 2)
		})

		Convey("Threads 0 and 1 share leaf 1, threads 2 and 3 share leaf 2", func() {
			So(tree.GetLeafForThread(0), ShouldEqual, 1)
			So(tree.GetLeafForThread(1), ShouldEqual, 1)
			So(tree.GetLeafForThread(2), ShouldEqual, 2)
			So(tree.GetLeafForThread(3), ShouldEqual, 2)
		})

		Convey("1000 balanced arrive/depart pairs per caller settle at Query false", func() {
			for round := 0; round < 1000; round++ {
				for tid := 0; tid < 4; tid++ {
					tree.Arrive(tid)
				}
				for tid := 0; tid < 4; tid++ {
					tree.Depart(tid)
				}
			}
			So(tree.Query(), ShouldBeFalse)
		})
	})
}

func TestQueryIdempotent(t *testing.T) {
	Convey("Given an arrived tree", t, func() {
		tree, err := NewTree(2, 0, 2, NoContention)
		So(err, ShouldBeNil)
		tree.Arrive(0)

		Convey("Two consecutive Query calls agree", func() {
			So(tree.Query(), ShouldEqual, tree.Query())
		})
	})
}
