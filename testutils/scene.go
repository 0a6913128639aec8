// Package testutils provides synthetic lidar data and test harness helpers.
package testutils

import (
	"math"

	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
)

// SceneRings is the number of scan rings of a Scene.
const SceneRings = 10

// Scene is a small ring-structured environment as seen by a multi-beam lidar: four vertical edges,
// a floor seen by the lower rings and two perpendicular walls seen by the upper rings. Both
// clouds are ordered by ring.
type Scene struct {
	Corners  pointcloud.Cloud
	Surfaces pointcloud.Cloud
}

// NewScene builds the scene with every point stamped at the given capture time.
func NewScene(captureTime float64) Scene {
	var corners, surfaces pointcloud.Cloud
	for ring := 0; ring < SceneRings; ring++ {
		z := -2 + 0.4*float64(ring)
		for _, xy := range [][2]float64{{5, 5}, {-5, 5}, {-5, -5}, {5, -5}} {
			corners = append(corners, pointcloud.NewPoint(xy[0], xy[1], z, ring, captureTime))
		}

		if ring < 5 {
			radius := 3 + 0.8*float64(ring)
			for i := 0; i < 36; i++ {
				a := float64(i) * 10 * math.Pi / 180
				surfaces = append(surfaces,
					pointcloud.NewPoint(radius*math.Cos(a), radius*math.Sin(a), -2, ring, captureTime))
			}
			continue
		}
		wz := -1 + 0.5*float64(ring-5)
		for i := 0; i <= 12; i++ {
			v := -3 + 0.5*float64(i)
			surfaces = append(surfaces, pointcloud.NewPoint(8, v, wz, ring, captureTime))
		}
		for i := 0; i <= 12; i++ {
			v := -3 + 0.5*float64(i)
			surfaces = append(surfaces, pointcloud.NewPoint(v, 8, wz, ring, captureTime))
		}
	}
	return Scene{Corners: corners, Surfaces: surfaces}
}

// Full returns every point of the scene, ordered by ring.
func (s Scene) Full() pointcloud.Cloud {
	full := append(s.Corners.Clone(), s.Surfaces...)
	full.SortByRing()
	return full
}

// Moved returns the scene as captured after the sensor moved by the inverse of motion, so that
// registering it against s recovers motion.
func (s Scene) Moved(motion spatialmath.Pose) Scene {
	return Scene{Corners: MoveCloud(s.Corners, motion), Surfaces: MoveCloud(s.Surfaces, motion)}
}

// MoveCloud rotates every point about Y, then X, then Z by the angles of motion and adds its
// translation. Rings and capture times are kept.
func MoveCloud(c pointcloud.Cloud, motion spatialmath.Pose) pointcloud.Cloud {
	out := make(pointcloud.Cloud, len(c))
	for i, p := range c {
		v := spatialmath.RotateYXZ(p.Position, motion.Rot.Y, motion.Rot.X, motion.Rot.Z)
		out[i] = p.WithPosition(v.Add(motion.Pos))
	}
	return out
}
