// Package pointcloud defines the ring-labelled lidar points exchanged between the feature
// extractor and the odometry engine, and a nearest neighbour index over them.
//
// Clouds are plain ordered slices. Feature clouds are expected to be ordered by ring, which the
// correspondence search relies on when scanning neighbouring indices.
package pointcloud

import (
	"math"
	"sort"
)

// Cloud is an ordered collection of points.
type Cloud []Point

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	MinRing, MaxRing int
}

// Size returns the number of points in the cloud.
func (c Cloud) Size() int {
	return len(c)
}

// Clone returns a copy that shares no storage with c.
func (c Cloud) Clone() Cloud {
	if c == nil {
		return nil
	}
	out := make(Cloud, len(c))
	copy(out, c)
	return out
}

// RemoveNonFinite drops every point with a NaN or infinite coordinate, keeping the order of the
// rest. It returns the filtered cloud, which reuses the storage of c.
func (c Cloud) RemoveNonFinite() Cloud {
	out := c[:0]
	for _, p := range c {
		if p.IsFinite() {
			out = append(out, p)
		}
	}
	return out
}

// SortByRing orders the cloud by ring, keeping the capture order within a ring.
func (c Cloud) SortByRing() {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].Ring < c[j].Ring
	})
}

// MetaData returns the bounds of the cloud.
func (c Cloud) MetaData() MetaData {
	meta := MetaData{
		MinX:    math.MaxFloat64,
		MinY:    math.MaxFloat64,
		MinZ:    math.MaxFloat64,
		MaxX:    -math.MaxFloat64,
		MaxY:    -math.MaxFloat64,
		MaxZ:    -math.MaxFloat64,
		MinRing: math.MaxInt,
		MaxRing: math.MinInt,
	}
	for _, p := range c {
		meta.Merge(p)
	}
	return meta
}

// Merge extends the bounds to include p.
func (meta *MetaData) Merge(p Point) {
	v := p.Position

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}

	if p.Ring > meta.MaxRing {
		meta.MaxRing = p.Ring
	}
	if p.Ring < meta.MinRing {
		meta.MinRing = p.Ring
	}
}
