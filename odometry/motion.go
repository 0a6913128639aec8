package odometry

import (
	"math"

	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
)

// largeRotationDegrees is the per-point start correction above which a diagnostic is logged.
const largeRotationDegrees = 5.0

// scanMotion maps points captured during a sweep to the start or the end of that sweep,
// assuming the incremental pose accrued at constant velocity over the scan period.
type scanMotion struct {
	transform  spatialmath.Pose
	aux        AuxiliaryMotion
	scanPeriod float64
}

// ratio is the fraction of the sweep elapsed when p was captured.
func (m scanMotion) ratio(p pointcloud.Point) float64 {
	return p.Time / m.scanPeriod
}

// startCorrection returns the rotation undoing the motion accrued until p was captured.
func (m scanMotion) startCorrection(s float64) spatialmath.Rotation {
	return m.transform.Rot.Scale(-s)
}

// toScanStart expresses p as if it had been captured at the start of the sweep: the accrued
// translation is removed, then the accrued rotation is undone about Z, X and Y.
func (m scanMotion) toScanStart(p pointcloud.Point) pointcloud.Point {
	s := m.ratio(p)
	undo := m.startCorrection(s)
	v := p.Position.Sub(m.transform.Pos.Mul(s))
	return p.WithPosition(spatialmath.RotateZXY(v, undo.Z, undo.X, undo.Y))
}

// toScanEnd expresses p as if it had been captured at the end of the sweep, folding in the
// auxiliary motion hint. The capture time is cleared and the ring kept. large reports whether
// the start correction exceeded largeRotationDegrees on any axis.
func (m scanMotion) toScanEnd(p pointcloud.Point) (out pointcloud.Point, large bool) {
	s := m.ratio(p)
	undo := m.startCorrection(s)
	rot := m.transform.Rot

	v := p.Position.Sub(m.transform.Pos.Mul(s))
	v = spatialmath.RotateZXY(v, undo.Z, undo.X, undo.Y)
	v = spatialmath.RotateYXZ(v, rot.Y, rot.X, rot.Z)

	large = math.Abs(undo.X.Deg()) > largeRotationDegrees ||
		math.Abs(undo.Y.Deg()) > largeRotationDegrees ||
		math.Abs(undo.Z.Deg()) > largeRotationDegrees

	v = v.Add(m.transform.Pos.Sub(m.aux.ShiftFromStart))
	v = spatialmath.RotateZXY(v, m.aux.Start.Z, m.aux.Start.X, m.aux.Start.Y)
	v = spatialmath.RotateYXZ(v, m.aux.End.Y.Neg(), m.aux.End.X.Neg(), m.aux.End.Z.Neg())

	return pointcloud.Point{Position: v, Ring: p.Ring}, large
}

// cloudToScanEnd carries every point of c to the end of the sweep, in place. It returns the
// number of points whose start correction was large.
func (m scanMotion) cloudToScanEnd(c pointcloud.Cloud) int {
	large := 0
	for i := range c {
		var isLarge bool
		c[i], isLarge = m.toScanEnd(c[i])
		if isLarge {
			large++
		}
	}
	return large
}
