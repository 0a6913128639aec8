package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestAngle(t *testing.T) {
	var zero Angle
	test.That(t, zero.Cos(), test.ShouldEqual, 1.)
	test.That(t, zero.Sin(), test.ShouldEqual, 0.)
	test.That(t, zero.Neg().Cos(), test.ShouldEqual, 1.)

	a := NewAngleDegrees(30)
	test.That(t, a.Sin(), test.ShouldAlmostEqual, 0.5)
	test.That(t, a.Neg().Sin(), test.ShouldAlmostEqual, -0.5)
	test.That(t, a.Neg().Cos(), test.ShouldAlmostEqual, math.Sqrt(3)/2)
	test.That(t, a.Scale(3).Deg(), test.ShouldAlmostEqual, 90)
	test.That(t, a.Add(NewAngle(math.Pi/6)).Deg(), test.ShouldAlmostEqual, 60)
	test.That(t, NewAngle(math.NaN()).IsFinite(), test.ShouldBeFalse)
}

func TestRotateAxes(t *testing.T) {
	quarter := NewAngleDegrees(90)
	v := RotateZ(r3.Vector{X: 1}, quarter)
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)

	v = RotateX(r3.Vector{Y: 1}, quarter)
	test.That(t, v.Z, test.ShouldAlmostEqual, 1)

	v = RotateY(r3.Vector{Z: 1}, quarter)
	test.That(t, v.X, test.ShouldAlmostEqual, 1)
}

func TestRotationMatrixMatchesApply(t *testing.T) {
	r := NewRotation(0.3, -0.7, 1.1)
	v := r3.Vector{X: 1.5, Y: -2, Z: 0.25}

	applied := r.Apply(v)
	multiplied := r.Matrix().Mul3x1(mgl64.Vec3{v.X, v.Y, v.Z})
	test.That(t, applied.X, test.ShouldAlmostEqual, multiplied[0])
	test.That(t, applied.Y, test.ShouldAlmostEqual, multiplied[1])
	test.That(t, applied.Z, test.ShouldAlmostEqual, multiplied[2])

	back := r.ApplyInverse(applied)
	test.That(t, back.X, test.ShouldAlmostEqual, v.X)
	test.That(t, back.Y, test.ShouldAlmostEqual, v.Y)
	test.That(t, back.Z, test.ShouldAlmostEqual, v.Z)

	extracted := RotationFromMatrix(r.Matrix())
	test.That(t, extracted.X.Rad(), test.ShouldAlmostEqual, 0.3)
	test.That(t, extracted.Y.Rad(), test.ShouldAlmostEqual, -0.7)
	test.That(t, extracted.Z.Rad(), test.ShouldAlmostEqual, 1.1)
}

func TestAccumulateRotation(t *testing.T) {
	out := AccumulateRotation(NewRotation(0.3, -0.2, 0.1), NewRotation(-0.1, 0.25, 0.05))
	test.That(t, out.X.Rad(), test.ShouldAlmostEqual, 0.16730597344888765)
	test.That(t, out.Y.Rad(), test.ShouldAlmostEqual, 0.04061382955939965)
	test.That(t, out.Z.Rad(), test.ShouldAlmostEqual, 0.21866489033528322)

	// Negation inverts single-axis rotations.
	yaw := NewRotation(0, 0.4, 0)
	identity := AccumulateRotation(yaw, yaw.Neg())
	test.That(t, identity.Y.Rad(), test.ShouldAlmostEqual, 0)
}

func TestPluginAuxiliaryRotation(t *testing.T) {
	composed := NewRotation(0.1, 0.2, -0.05)

	t.Run("zero auxiliary orientation", func(t *testing.T) {
		out := PluginAuxiliaryRotation(composed, Rotation{}, Rotation{})
		test.That(t, out.X.Rad(), test.ShouldAlmostEqual, 0.1)
		test.That(t, out.Y.Rad(), test.ShouldAlmostEqual, 0.2)
		test.That(t, out.Z.Rad(), test.ShouldAlmostEqual, -0.05)
	})

	t.Run("equal start and end", func(t *testing.T) {
		same := NewRotation(0.04, -0.3, 0.02)
		out := PluginAuxiliaryRotation(composed, same, same)
		test.That(t, out.X.Rad(), test.ShouldAlmostEqual, 0.1)
		test.That(t, out.Y.Rad(), test.ShouldAlmostEqual, 0.2)
		test.That(t, out.Z.Rad(), test.ShouldAlmostEqual, -0.05)
	})

	t.Run("closed form", func(t *testing.T) {
		out := PluginAuxiliaryRotation(composed, NewRotation(0.02, -0.03, 0.04), NewRotation(0.05, 0.01, -0.02))
		test.That(t, out.X.Rad(), test.ShouldAlmostEqual, 0.1334166503446975)
		test.That(t, out.Y.Rad(), test.ShouldAlmostEqual, 0.23742153846705466)
		test.That(t, out.Z.Rad(), test.ShouldAlmostEqual, -0.10704145084404094)
	})
}

func TestPoseQuaternion(t *testing.T) {
	pose := Pose{Rot: NewRotation(-0.4, 0.9, 0.2), Pos: r3.Vector{X: 1, Y: 2, Z: 3}}
	v := r3.Vector{X: 0.5, Y: -1, Z: 2}

	q := pose.Quaternion()
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1)
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))

	expected := pose.Transform(v).Sub(pose.Pos)
	test.That(t, rotated.Imag, test.ShouldAlmostEqual, expected.X)
	test.That(t, rotated.Jmag, test.ShouldAlmostEqual, expected.Y)
	test.That(t, rotated.Kmag, test.ShouldAlmostEqual, expected.Z)

	test.That(t, pose.IsFinite(), test.ShouldBeTrue)
	pose.Pos.Y = math.Inf(1)
	test.That(t, pose.IsFinite(), test.ShouldBeFalse)
	test.That(t, NewZeroPose().RotationMatrix().ApproxEqual(mgl64.Ident3()), test.ShouldBeTrue)
}
