package odometry

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
)

// AuxiliaryMotion is the motion hint measured by an auxiliary sensor (usually an IMU) over one
// sweep. The orientations carry pitch in X, yaw in Y and roll in Z.
type AuxiliaryMotion struct {
	Start spatialmath.Rotation
	End   spatialmath.Rotation
	// ShiftFromStart is the displacement not explained by constant velocity motion.
	ShiftFromStart r3.Vector
	// VelocityFromStart is the velocity at sweep start, expressed in the sweep start frame.
	VelocityFromStart r3.Vector
}

// auxiliaryCloudSize is the number of points in the cloud encoding of an AuxiliaryMotion.
const auxiliaryCloudSize = 4

// AuxiliaryMotionFromCloud decodes the cloud encoding used by feature extractors: four points
// holding (pitch, yaw, roll) at start, (pitch, yaw, roll) at end, the shift and the velocity.
func AuxiliaryMotionFromCloud(cloud pointcloud.Cloud) (AuxiliaryMotion, error) {
	if len(cloud) != auxiliaryCloudSize {
		return AuxiliaryMotion{}, errors.Errorf("auxiliary motion cloud must have %d points, got %d", auxiliaryCloudSize, len(cloud))
	}
	start, end := cloud[0].Position, cloud[1].Position
	return AuxiliaryMotion{
		Start:             spatialmath.NewRotation(start.X, start.Y, start.Z),
		End:               spatialmath.NewRotation(end.X, end.Y, end.Z),
		ShiftFromStart:    cloud[2].Position,
		VelocityFromStart: cloud[3].Position,
	}, nil
}

// Cloud encodes the motion the way AuxiliaryMotionFromCloud decodes it.
func (aux AuxiliaryMotion) Cloud() pointcloud.Cloud {
	return pointcloud.Cloud{
		pointcloud.NewPoint(aux.Start.X.Rad(), aux.Start.Y.Rad(), aux.Start.Z.Rad(), 0, 0),
		pointcloud.NewPoint(aux.End.X.Rad(), aux.End.Y.Rad(), aux.End.Z.Rad(), 0, 0),
		{Position: aux.ShiftFromStart},
		{Position: aux.VelocityFromStart},
	}
}
