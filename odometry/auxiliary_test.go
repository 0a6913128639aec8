package odometry

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/lidarodometry/pointcloud"
)

func TestAuxiliaryMotionFromCloud(t *testing.T) {
	cloud := pointcloud.Cloud{
		pointcloud.NewPoint(0.01, 0.5, -0.02, 0, 0),
		pointcloud.NewPoint(0.02, 0.6, -0.01, 0, 0),
		pointcloud.NewPoint(0.1, 0, 0.2, 0, 0),
		pointcloud.NewPoint(1, 0, 3, 0, 0),
	}
	aux, err := AuxiliaryMotionFromCloud(cloud)
	test.That(t, err, test.ShouldBeNil)
	// pitch, yaw, roll
	test.That(t, aux.Start.X.Rad(), test.ShouldEqual, 0.01)
	test.That(t, aux.Start.Y.Rad(), test.ShouldEqual, 0.5)
	test.That(t, aux.Start.Z.Rad(), test.ShouldEqual, -0.02)
	test.That(t, aux.End.Y.Rad(), test.ShouldEqual, 0.6)
	test.That(t, aux.ShiftFromStart, test.ShouldResemble, pointcloud.NewVector(0.1, 0, 0.2))
	test.That(t, aux.VelocityFromStart, test.ShouldResemble, pointcloud.NewVector(1, 0, 3))

	encoded := aux.Cloud()
	test.That(t, encoded, test.ShouldHaveLength, 4)
	test.That(t, encoded[1].Position, test.ShouldResemble, cloud[1].Position)

	_, err = AuxiliaryMotionFromCloud(cloud[:3])
	test.That(t, err, test.ShouldNotBeNil)
	_, err = AuxiliaryMotionFromCloud(nil)
	test.That(t, err, test.ShouldNotBeNil)
}
