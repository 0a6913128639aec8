package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/lidarodometry/utils"
)

// Pose is a rotation followed by a translation.
type Pose struct {
	Rot Rotation
	Pos r3.Vector
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{Rot: NewRotation(0, 0, 0)}
}

// RotationMatrix returns the rotation of the pose as a matrix.
func (p Pose) RotationMatrix() mgl64.Mat3 {
	return p.Rot.Matrix()
}

// Quaternion returns the rotation of the pose as a unit quaternion.
func (p Pose) Quaternion() quat.Number {
	axis := func(a Angle, i, j, k float64) quat.Number {
		half := a.Rad() / 2
		s := math.Sin(half)
		return quat.Number{Real: math.Cos(half), Imag: i * s, Jmag: j * s, Kmag: k * s}
	}
	qx := axis(p.Rot.X, 1, 0, 0)
	qy := axis(p.Rot.Y, 0, 1, 0)
	qz := axis(p.Rot.Z, 0, 0, 1)
	return quat.Mul(qy, quat.Mul(qx, qz))
}

// Transform maps v through the pose: R·v + t.
func (p Pose) Transform(v r3.Vector) r3.Vector {
	return p.Rot.Apply(v).Add(p.Pos)
}

// IsFinite reports whether every component of the pose is a usable number.
func (p Pose) IsFinite() bool {
	return p.Rot.X.IsFinite() && p.Rot.Y.IsFinite() && p.Rot.Z.IsFinite() &&
		utils.IsFinite(p.Pos.X) && utils.IsFinite(p.Pos.Y) && utils.IsFinite(p.Pos.Z)
}
