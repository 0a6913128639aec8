package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Point is a classified lidar return. Ring is the scanning channel that captured it and Time is
// the offset in seconds from the start of the sweep.
type Point struct {
	Position r3.Vector
	Ring     int
	Time     float64
}

// NewPoint returns a point on the given ring captured time seconds into the sweep.
func NewPoint(x, y, z float64, ring int, time float64) Point {
	return Point{Position: NewVector(x, y, z), Ring: ring, Time: time}
}

// FromIntensity decodes the packed intensity channel, ring = floor(v) and time = v - ring. The
// ring must fit in an int32.
func FromIntensity(position r3.Vector, intensity float64) (Point, error) {
	if math.IsNaN(intensity) || math.IsInf(intensity, 0) || intensity < 0 || intensity >= math.MaxInt32 {
		return Point{}, errors.Errorf("cannot decode ring and time from intensity %v", intensity)
	}
	ring := math.Floor(intensity)
	return Point{Position: position, Ring: int(ring), Time: intensity - ring}, nil
}

// Intensity packs ring and time into a single channel. Time must be below one second for the
// encoding to be reversible.
func (p Point) Intensity() float64 {
	return float64(p.Ring) + p.Time
}

// IsFinite reports whether every coordinate is a usable number.
func (p Point) IsFinite() bool {
	for _, c := range []float64{p.Position.X, p.Position.Y, p.Position.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// WithPosition returns a copy of the point moved to position.
func (p Point) WithPosition(position r3.Vector) Point {
	p.Position = position
	return p
}
