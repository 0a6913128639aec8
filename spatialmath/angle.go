package spatialmath

import (
	"math"

	"go.viam.com/lidarodometry/utils"
)

// Angle is a planar rotation angle that caches its sine and cosine. The zero value is a valid
// zero angle.
type Angle struct {
	rad    float64
	sin    float64
	cos    float64
	cached bool
}

// NewAngle returns an angle of rad radians.
func NewAngle(rad float64) Angle {
	return Angle{rad: rad, sin: math.Sin(rad), cos: math.Cos(rad), cached: true}
}

// NewAngleDegrees returns an angle of deg degrees.
func NewAngleDegrees(deg float64) Angle {
	return NewAngle(utils.DegToRad(deg))
}

// Rad returns the angle in radians.
func (a Angle) Rad() float64 {
	return a.rad
}

// Deg returns the angle in degrees.
func (a Angle) Deg() float64 {
	return utils.RadToDeg(a.rad)
}

// Sin returns the sine of the angle.
func (a Angle) Sin() float64 {
	if !a.cached {
		return math.Sin(a.rad)
	}
	return a.sin
}

// Cos returns the cosine of the angle.
func (a Angle) Cos() float64 {
	if !a.cached {
		return math.Cos(a.rad)
	}
	return a.cos
}

// Neg returns the opposite angle.
func (a Angle) Neg() Angle {
	if !a.cached {
		return Angle{rad: -a.rad}
	}
	return Angle{rad: -a.rad, sin: -a.sin, cos: a.cos, cached: true}
}

// Add returns the sum of both angles.
func (a Angle) Add(b Angle) Angle {
	return NewAngle(a.rad + b.rad)
}

// Scale returns the angle multiplied by s.
func (a Angle) Scale(s float64) Angle {
	return NewAngle(s * a.rad)
}

// IsFinite reports whether the angle is a usable number.
func (a Angle) IsFinite() bool {
	return utils.IsFinite(a.rad)
}
