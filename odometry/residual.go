package odometry

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/lidarodometry/spatialmath"
)

const (
	// weightingStartIteration is the first iteration at which residuals are down-weighted.
	weightingStartIteration = 5
	// weightSlope scales the distance in the down-weighting function.
	weightSlope = 1.8
	// minWeight is the weight at or below which a residual is dropped.
	minWeight = 0.1
	// stepScale damps every Gauss-Newton step.
	stepScale = 0.05
)

// residual is one weighted point-to-feature distance.
type residual struct {
	// point is the current point as captured, before deskewing.
	point r3.Vector
	// coeff is the weighted unit gradient of the distance with respect to the deskewed point.
	coeff r3.Vector
	// distance is the weighted signed distance.
	distance float64
}

// pointToLine returns the distance from q to the line through p1 and p2 together with the unit
// direction along which moving q increases it. ok is false for coincident p1 and p2 or when q
// lies on the line.
func pointToLine(q, p1, p2 r3.Vector) (direction r3.Vector, distance float64, ok bool) {
	cross := q.Sub(p1).Cross(q.Sub(p2))
	area := cross.Norm()
	length := p1.Sub(p2).Norm()
	if area == 0 || length == 0 {
		return r3.Vector{}, 0, false
	}
	direction = p1.Sub(p2).Cross(cross).Mul(1 / (area * length))
	return direction, area / length, true
}

// pointToPlane returns the signed distance from q to the plane through p1, p2 and p3 together
// with the plane's unit normal. ok is false for collinear points.
func pointToPlane(q, p1, p2, p3 r3.Vector) (normal r3.Vector, distance float64, ok bool) {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	norm := n.Norm()
	if norm == 0 {
		return r3.Vector{}, 0, false
	}
	normal = n.Mul(1 / norm)
	return normal, normal.Dot(q) - normal.Dot(p1), true
}

func edgeWeight(iteration int, distance float64) float64 {
	if iteration < weightingStartIteration {
		return 1
	}
	return 1 - weightSlope*math.Abs(distance)
}

// planeWeight down-weights distant points less, their surfaces being sampled sparsely.
func planeWeight(iteration int, distance float64, q r3.Vector) float64 {
	if iteration < weightingStartIteration {
		return 1
	}
	return 1 - weightSlope*math.Abs(distance)/math.Sqrt(q.Norm())
}

// newResidual weights a raw distance. ok is false when the residual must be dropped.
func newResidual(point, direction r3.Vector, distance, weight float64) (residual, bool) {
	if weight <= minWeight || distance == 0 {
		return residual{}, false
	}
	return residual{point: point, coeff: direction.Mul(weight), distance: weight * distance}, true
}

// jacobianRow returns the derivative of the residual distance with respect to the incremental
// pose (rx, ry, rz, tx, ty, tz), the point being carried to sweep start by the whole transform.
func jacobianRow(transform spatialmath.Pose, res residual) [6]float64 {
	srx, crx := transform.Rot.X.Sin(), transform.Rot.X.Cos()
	sry, cry := transform.Rot.Y.Sin(), transform.Rot.Y.Cos()
	srz, crz := transform.Rot.Z.Sin(), transform.Rot.Z.Cos()
	tx, ty, tz := transform.Pos.X, transform.Pos.Y, transform.Pos.Z
	x, y, z := res.point.X, res.point.Y, res.point.Z
	c := res.coeff

	arx := (-x*(crx*sry*srz)+y*(crx*crz*sry)+z*(srx*sry)+
		tx*(crx*sry*srz)-ty*(crx*crz*sry)-tz*(srx*sry))*c.X +
		(x*(srx*srz)-y*(crz*srx)+z*crx-
			tx*(srx*srz)+ty*(crz*srx)-tz*crx)*c.Y +
		(x*(crx*cry*srz)-y*(crx*cry*crz)-z*(cry*srx)-
			tx*(crx*cry*srz)+ty*(crx*cry*crz)+tz*(cry*srx))*c.Z

	ary := (-x*(crz*sry+cry*srx*srz)-y*(sry*srz-cry*crz*srx)-z*(crx*cry)+
		tx*(crz*sry+cry*srx*srz)+ty*(sry*srz-cry*crz*srx)+tz*(crx*cry))*c.X +
		(x*(cry*crz-srx*sry*srz)+y*(cry*srz+crz*srx*sry)-z*(crx*sry)-
			tx*(cry*crz-srx*sry*srz)-ty*(cry*srz+crz*srx*sry)+tz*(crx*sry))*c.Z

	arz := (-x*(cry*srz+crz*srx*sry)+y*(cry*crz-srx*sry*srz)+
		tx*(cry*srz+crz*srx*sry)-ty*(cry*crz-srx*sry*srz))*c.X +
		(-x*(crx*crz)-y*(crx*srz)+
			tx*crx*crz+ty*crx*srz)*c.Y +
		(x*(cry*crz*srx-sry*srz)+y*(crz*sry+cry*srx*srz)+
			tx*(sry*srz-cry*crz*srx)-ty*(crz*sry+cry*srx*srz))*c.Z

	atx := -(cry*crz-srx*sry*srz)*c.X + (crx*srz)*c.Y - (crz*sry+cry*srx*srz)*c.Z
	aty := -(cry*srz+crz*srx*sry)*c.X - (crx*crz)*c.Y - (sry*srz-cry*crz*srx)*c.Z
	atz := (crx*sry)*c.X - srx*c.Y - (crx*cry)*c.Z

	return [6]float64{arx, ary, arz, atx, aty, atz}
}
