package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree is a static nearest neighbour index over a cloud. Results refer to positions in the
// cloud the tree was built from.
type KDTree struct {
	tree *kdtree.Tree
	size int
}

// ToKDTree builds an index over the positions of c. The cloud itself is not modified.
func ToKDTree(c Cloud) *KDTree {
	if len(c) == 0 {
		return &KDTree{}
	}
	pts := make(indexedPoints, len(c))
	for i, p := range c {
		pts[i] = indexedPoint{pos: p.Position, index: i}
	}
	return &KDTree{tree: kdtree.New(pts, false), size: len(c)}
}

// Size returns the number of indexed points.
func (kd *KDTree) Size() int {
	if kd == nil {
		return 0
	}
	return kd.size
}

// NearestNeighbor returns the cloud index of the point closest to q and its squared distance.
// ok is false when the tree is empty.
func (kd *KDTree) NearestNeighbor(q r3.Vector) (index int, squaredDist float64, ok bool) {
	if kd.Size() == 0 {
		return -1, math.Inf(1), false
	}
	got, dist := kd.tree.Nearest(indexedPoint{pos: q, index: -1})
	if got == nil {
		return -1, math.Inf(1), false
	}
	return got.(indexedPoint).index, dist, true
}

type indexedPoint struct {
	pos   r3.Vector
	index int
}

func coordinate(v r3.Vector, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Compare returns the signed distance of p from the plane through c perpendicular to d.
func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return coordinate(p.pos, d) - coordinate(c.(indexedPoint).pos, d)
}

func (p indexedPoint) Dims() int {
	return 3
}

// Distance returns the squared euclidean distance.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	return p.pos.Sub(c.(indexedPoint).pos).Norm2()
}

type indexedPoints []indexedPoint

func (ps indexedPoints) Index(i int) kdtree.Comparable {
	return ps[i]
}

func (ps indexedPoints) Len() int {
	return len(ps)
}

func (ps indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{indexedPoints: ps, Dim: d}.Pivot()
}

func (ps indexedPoints) Slice(start, end int) kdtree.Interface {
	return ps[start:end]
}

// plane orders points along a single dimension for median partitioning.
type plane struct {
	kdtree.Dim
	indexedPoints
}

func (p plane) Less(i, j int) bool {
	return coordinate(p.indexedPoints[i].pos, p.Dim) < coordinate(p.indexedPoints[j].pos, p.Dim)
}

func (p plane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}
