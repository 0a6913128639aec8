package odometry

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/lidarodometry/pointcloud"
)

func TestMatchEdgeRingConstraints(t *testing.T) {
	cloud := pointcloud.Cloud{
		pointcloud.NewPoint(0, 0, 0, 0, 0),
		pointcloud.NewPoint(0, 0, 0.5, 1, 0),
		pointcloud.NewPoint(0.1, 0, 1, 2, 0),
		// same ring as the nearest point, never a second point
		pointcloud.NewPoint(0.2, 0, 1, 2, 0),
		pointcloud.NewPoint(0, 0, 1.5, 3, 0),
		// closer than every candidate but too many rings away
		pointcloud.NewPoint(0.1, 0, 1.05, 5, 0),
	}
	ref := newReferenceFeatures(cloud)
	q := r3.Vector{X: 0.1, Z: 1.01}

	match := ref.matchEdge(q)
	test.That(t, match, test.ShouldResemble, edgeMatch{first: 2, second: 4})
	test.That(t, match.complete(), test.ShouldBeTrue)

	// without the ring above, the closest ring below is used
	ref = newReferenceFeatures(append(cloud[:4:4], cloud[5]))
	match = ref.matchEdge(q)
	test.That(t, match, test.ShouldResemble, edgeMatch{first: 2, second: 1})

	// a ring with no neighbouring rings in range yields no line
	ref = newReferenceFeatures(pointcloud.Cloud{
		pointcloud.NewPoint(0, 0, 0, 0, 0),
		pointcloud.NewPoint(0.1, 0, 1, 4, 0),
		pointcloud.NewPoint(0.3, 0, 1, 4, 0),
	})
	match = ref.matchEdge(q)
	test.That(t, match.first, test.ShouldEqual, 1)
	test.That(t, match.second, test.ShouldEqual, noMatch)
	test.That(t, match.complete(), test.ShouldBeFalse)

	// the nearest point must be closer than 5
	match = ref.matchEdge(r3.Vector{X: 10, Y: 10, Z: 10})
	test.That(t, match, test.ShouldResemble, edgeMatch{first: noMatch, second: noMatch})

	match = newReferenceFeatures(nil).matchEdge(q)
	test.That(t, match.complete(), test.ShouldBeFalse)
}

func TestMatchPlaneRingConstraints(t *testing.T) {
	cloud := pointcloud.Cloud{
		pointcloud.NewPoint(0, 0, 0, 0, 0),
		pointcloud.NewPoint(1, 0, 0, 1, 0),
		pointcloud.NewPoint(0, 1, 0, 1, 0),
		pointcloud.NewPoint(1, 1, 0, 2, 0),
		// closer than the third point but too many rings away
		pointcloud.NewPoint(0.5, 0.5, 0, 4, 0),
	}
	ref := newReferenceFeatures(cloud)
	q := r3.Vector{X: 0.9, Y: 0.1, Z: 0.1}

	match := ref.matchPlane(q)
	test.That(t, match, test.ShouldResemble, planeMatch{first: 1, second: 2, third: 3})
	test.That(t, match.complete(), test.ShouldBeTrue)
	test.That(t, cloud[match.second].Ring, test.ShouldEqual, cloud[match.first].Ring)
	test.That(t, cloud[match.third].Ring, test.ShouldNotEqual, cloud[match.first].Ring)

	// the ring below provides the third point when it is closer
	cloud[0] = pointcloud.NewPoint(0.5, 0, 0, 0, 0)
	ref = newReferenceFeatures(cloud)
	match = ref.matchPlane(q)
	test.That(t, match, test.ShouldResemble, planeMatch{first: 1, second: 2, third: 0})

	// a lone ring gives no surface patch
	ref = newReferenceFeatures(pointcloud.Cloud{
		pointcloud.NewPoint(1, 0, 0, 1, 0),
		pointcloud.NewPoint(0, 1, 0, 1, 0),
	})
	match = ref.matchPlane(q)
	test.That(t, match.first, test.ShouldEqual, 0)
	test.That(t, match.second, test.ShouldEqual, 1)
	test.That(t, match.third, test.ShouldEqual, noMatch)
	test.That(t, match.complete(), test.ShouldBeFalse)
}
