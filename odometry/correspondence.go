package odometry

import (
	"github.com/golang/geo/r3"

	"go.viam.com/lidarodometry/pointcloud"
)

const (
	// maxMatchSquaredDist bounds the squared distance of every reference point of a match.
	maxMatchSquaredDist = 25.0
	// nearbyRings bounds how far, in rings, the scan for secondary reference points extends.
	nearbyRings = 2.5
	// researchInterval is the number of solver iterations sharing one set of correspondences.
	researchInterval = 5
)

// noMatch marks a missing reference index.
const noMatch = -1

// edgeMatch holds the reference indices of the line a corner point is matched to.
type edgeMatch struct {
	first, second int
}

func (m edgeMatch) complete() bool {
	return m.first >= 0 && m.second >= 0
}

// planeMatch holds the reference indices of the plane a surface point is matched to.
type planeMatch struct {
	first, second, third int
}

func (m planeMatch) complete() bool {
	return m.first >= 0 && m.second >= 0 && m.third >= 0
}

// referenceFeatures is a reference cloud and its index.
type referenceFeatures struct {
	cloud pointcloud.Cloud
	tree  *pointcloud.KDTree
}

func newReferenceFeatures(cloud pointcloud.Cloud) referenceFeatures {
	return referenceFeatures{cloud: cloud, tree: pointcloud.ToKDTree(cloud)}
}

// nearest returns the index of the closest reference point if it lies within
// maxMatchSquaredDist of q.
func (ref referenceFeatures) nearest(q r3.Vector) int {
	idx, dist, ok := ref.tree.NearestNeighbor(q)
	if !ok || dist >= maxMatchSquaredDist {
		return noMatch
	}
	return idx
}

func (ref referenceFeatures) squaredDist(idx int, q r3.Vector) float64 {
	return ref.cloud[idx].Position.Sub(q).Norm2()
}

// matchEdge finds two reference corner points on different rings near q. The second point is
// the closest one on another ring within nearbyRings of the first; the scan runs both ways from
// the first point's position in the ring-ordered cloud.
func (ref referenceFeatures) matchEdge(q r3.Vector) edgeMatch {
	match := edgeMatch{first: ref.nearest(q), second: noMatch}
	if match.first == noMatch {
		return match
	}
	closestRing := ref.cloud[match.first].Ring
	minDist := maxMatchSquaredDist

	for j := match.first + 1; j < len(ref.cloud); j++ {
		ring := ref.cloud[j].Ring
		if float64(ring) > float64(closestRing)+nearbyRings {
			break
		}
		if ring <= closestRing {
			continue
		}
		if d := ref.squaredDist(j, q); d < minDist {
			minDist = d
			match.second = j
		}
	}
	for j := match.first - 1; j >= 0; j-- {
		ring := ref.cloud[j].Ring
		if float64(ring) < float64(closestRing)-nearbyRings {
			break
		}
		if ring >= closestRing {
			continue
		}
		if d := ref.squaredDist(j, q); d < minDist {
			minDist = d
			match.second = j
		}
	}
	return match
}

// matchPlane finds three reference surface points near q. In a ring-ordered cloud the second
// point shares the ring of the first and the third lies on a neighbouring ring, so the three
// span a surface patch rather than a single scan line.
func (ref referenceFeatures) matchPlane(q r3.Vector) planeMatch {
	match := planeMatch{first: ref.nearest(q), second: noMatch, third: noMatch}
	if match.first == noMatch {
		return match
	}
	closestRing := ref.cloud[match.first].Ring
	minDist2, minDist3 := maxMatchSquaredDist, maxMatchSquaredDist

	for j := match.first + 1; j < len(ref.cloud); j++ {
		ring := ref.cloud[j].Ring
		if float64(ring) > float64(closestRing)+nearbyRings {
			break
		}
		d := ref.squaredDist(j, q)
		if ring <= closestRing {
			if d < minDist2 {
				minDist2 = d
				match.second = j
			}
		} else if d < minDist3 {
			minDist3 = d
			match.third = j
		}
	}
	for j := match.first - 1; j >= 0; j-- {
		ring := ref.cloud[j].Ring
		if float64(ring) < float64(closestRing)-nearbyRings {
			break
		}
		d := ref.squaredDist(j, q)
		if ring >= closestRing {
			if d < minDist2 {
				minDist2 = d
				match.second = j
			}
		} else if d < minDist3 {
			minDist3 = d
			match.third = j
		}
	}
	return match
}
