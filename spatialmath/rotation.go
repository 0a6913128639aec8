// Package spatialmath holds the rotation and pose types of the odometry engine. Rotations are
// three angles applied about Z, then X, then Y.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Rotation is a three-angle rotation applied to a vector about Z first, then X, then Y, i.e. its
// matrix is Ry(Y)·Rx(X)·Rz(Z).
type Rotation struct {
	X Angle
	Y Angle
	Z Angle
}

// NewRotation returns a rotation from its three angles in radians.
func NewRotation(rx, ry, rz float64) Rotation {
	return Rotation{X: NewAngle(rx), Y: NewAngle(ry), Z: NewAngle(rz)}
}

// NewRotationDegrees returns a rotation from its three angles in degrees.
func NewRotationDegrees(rx, ry, rz float64) Rotation {
	return Rotation{X: NewAngleDegrees(rx), Y: NewAngleDegrees(ry), Z: NewAngleDegrees(rz)}
}

// RotationFromMatrix extracts the angles of a rotation matrix built as Ry·Rx·Rz.
func RotationFromMatrix(m mgl64.Mat3) Rotation {
	rx := -math.Asin(clampUnit(m.At(1, 2)))
	crx := math.Cos(rx)
	ry := math.Atan2(m.At(0, 2)/crx, m.At(2, 2)/crx)
	rz := math.Atan2(m.At(1, 0)/crx, m.At(1, 1)/crx)
	return NewRotation(rx, ry, rz)
}

// Neg negates every angle. This is not the inverse rotation.
func (r Rotation) Neg() Rotation {
	return Rotation{X: r.X.Neg(), Y: r.Y.Neg(), Z: r.Z.Neg()}
}

// Scale multiplies every angle by s.
func (r Rotation) Scale(s float64) Rotation {
	return Rotation{X: r.X.Scale(s), Y: r.Y.Scale(s), Z: r.Z.Scale(s)}
}

// Add sums the angles component-wise.
func (r Rotation) Add(o Rotation) Rotation {
	return Rotation{X: r.X.Add(o.X), Y: r.Y.Add(o.Y), Z: r.Z.Add(o.Z)}
}

// Degrees returns the three angles in degrees.
func (r Rotation) Degrees() r3.Vector {
	return r3.Vector{X: r.X.Deg(), Y: r.Y.Deg(), Z: r.Z.Deg()}
}

// Matrix returns the rotation matrix Ry·Rx·Rz.
func (r Rotation) Matrix() mgl64.Mat3 {
	return mgl64.Rotate3DY(r.Y.Rad()).Mul3(mgl64.Rotate3DX(r.X.Rad())).Mul3(mgl64.Rotate3DZ(r.Z.Rad()))
}

// Apply rotates v about Z, then X, then Y.
func (r Rotation) Apply(v r3.Vector) r3.Vector {
	return RotateZXY(v, r.Z, r.X, r.Y)
}

// ApplyInverse undoes Apply.
func (r Rotation) ApplyInverse(v r3.Vector) r3.Vector {
	return RotateYXZ(v, r.Y.Neg(), r.X.Neg(), r.Z.Neg())
}

// AccumulateRotation composes two rotations: the result has the matrix R(current)·R(last).
func AccumulateRotation(current, last Rotation) Rotation {
	return RotationFromMatrix(current.Matrix().Mul3(last.Matrix()))
}

// RotateX rotates v about the x axis.
func RotateX(v r3.Vector, a Angle) r3.Vector {
	s, c := a.Sin(), a.Cos()
	return r3.Vector{X: v.X, Y: c*v.Y - s*v.Z, Z: s*v.Y + c*v.Z}
}

// RotateY rotates v about the y axis.
func RotateY(v r3.Vector, a Angle) r3.Vector {
	s, c := a.Sin(), a.Cos()
	return r3.Vector{X: c*v.X + s*v.Z, Y: v.Y, Z: -s*v.X + c*v.Z}
}

// RotateZ rotates v about the z axis.
func RotateZ(v r3.Vector, a Angle) r3.Vector {
	s, c := a.Sin(), a.Cos()
	return r3.Vector{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y, Z: v.Z}
}

// RotateZXY rotates v about Z by rz, then X by rx, then Y by ry.
func RotateZXY(v r3.Vector, rz, rx, ry Angle) r3.Vector {
	return RotateY(RotateX(RotateZ(v, rz), rx), ry)
}

// RotateYXZ rotates v about Y by ry, then X by rx, then Z by rz.
func RotateYXZ(v r3.Vector, ry, rx, rz Angle) r3.Vector {
	return RotateZ(RotateX(RotateY(v, ry), rx), rz)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
