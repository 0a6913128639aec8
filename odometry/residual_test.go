package odometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
)

func TestPointToLine(t *testing.T) {
	direction, d, ok := pointToLine(r3.Vector{Y: 1}, r3.Vector{X: -1}, r3.Vector{X: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, 1, 1e-12)
	vectorsAlmostEqual(t, direction, r3.Vector{Y: 1}, 1e-12)

	// the distance does not depend on where the reference points sit on the line
	direction, d, ok = pointToLine(r3.Vector{X: 7, Y: 3, Z: 4}, r3.Vector{X: 2}, r3.Vector{X: -5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, 5, 1e-12)
	vectorsAlmostEqual(t, direction, r3.Vector{Y: 0.6, Z: 0.8}, 1e-12)

	_, _, ok = pointToLine(r3.Vector{X: 3}, r3.Vector{X: -1}, r3.Vector{X: 1})
	test.That(t, ok, test.ShouldBeFalse)
	_, _, ok = pointToLine(r3.Vector{Y: 1}, r3.Vector{X: 1}, r3.Vector{X: 1})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPointToPlane(t *testing.T) {
	p1, p2, p3 := r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1}
	normal, d, ok := pointToPlane(r3.Vector{X: 3, Y: 4, Z: 2.5}, p1, p2, p3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, 2.5, 1e-12)
	vectorsAlmostEqual(t, normal, r3.Vector{Z: 1}, 1e-12)

	// the distance is signed
	_, d, ok = pointToPlane(r3.Vector{X: 1, Y: 1, Z: -0.5}, p1, p2, p3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, -0.5, 1e-12)

	// tilted plane x + y + z = 1
	_, d, ok = pointToPlane(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 1}, r3.Vector{Y: 1}, r3.Vector{Z: 1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d, test.ShouldAlmostEqual, 2/math.Sqrt(3), 1e-12)

	_, _, ok = pointToPlane(r3.Vector{Z: 1}, p1, p2, r3.Vector{X: 2})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestResidualWeights(t *testing.T) {
	test.That(t, edgeWeight(0, 0.3), test.ShouldEqual, 1.)
	test.That(t, edgeWeight(4, 0.3), test.ShouldEqual, 1.)
	test.That(t, edgeWeight(5, 0.3), test.ShouldAlmostEqual, 0.46, 1e-12)
	test.That(t, edgeWeight(9, -0.3), test.ShouldAlmostEqual, 0.46, 1e-12)

	q := r3.Vector{Z: 4}
	test.That(t, planeWeight(4, 0.5, q), test.ShouldEqual, 1.)
	test.That(t, planeWeight(5, 0.5, q), test.ShouldAlmostEqual, 0.55, 1e-12)

	res, ok := newResidual(r3.Vector{X: 1}, r3.Vector{Y: 1}, 0.2, 0.5)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, res.distance, test.ShouldAlmostEqual, 0.1, 1e-12)
	test.That(t, res.coeff, test.ShouldResemble, r3.Vector{Y: 0.5})
	test.That(t, res.point, test.ShouldResemble, r3.Vector{X: 1})

	_, ok = newResidual(r3.Vector{X: 1}, r3.Vector{Y: 1}, 0.2, 0.1)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = newResidual(r3.Vector{X: 1}, r3.Vector{Y: 1}, 0, 1)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = newResidual(r3.Vector{X: 1}, r3.Vector{Y: 1}, 1, edgeWeight(5, 1))
	test.That(t, ok, test.ShouldBeFalse)
}

func TestJacobianMatchesFiniteDifferences(t *testing.T) {
	params := []float64{0.1, -0.2, 0.15, 0.3, -0.1, 0.2}
	pose := func(p []float64) spatialmath.Pose {
		return spatialmath.Pose{
			Rot: spatialmath.NewRotation(p[0], p[1], p[2]),
			Pos: r3.Vector{X: p[3], Y: p[4], Z: p[5]},
		}
	}
	point := pointcloud.NewPoint(2, -1.5, 0.7, 0, 0.1)
	coeff := r3.Vector{X: 0.3, Y: -0.5, Z: 0.8}

	// the residual moves with the projection of the deskewed point on the gradient
	project := func(p []float64) float64 {
		m := scanMotion{transform: pose(p), scanPeriod: 0.1}
		return coeff.Dot(m.toScanStart(point).Position)
	}

	row := jacobianRow(pose(params), residual{point: point.Position, coeff: coeff})
	const eps = 1e-6
	for i := range params {
		plus := append([]float64(nil), params...)
		minus := append([]float64(nil), params...)
		plus[i] += eps
		minus[i] -= eps
		numeric := (project(plus) - project(minus)) / (2 * eps)
		test.That(t, row[i], test.ShouldAlmostEqual, numeric, 1e-7)
	}
}
