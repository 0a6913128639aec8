package odometry

import (
	"go.viam.com/lidarodometry/spatialmath"
)

// composePose folds the incremental pose of a sweep into the cumulative pose and refines the
// result with the auxiliary orientations measured at sweep start and end.
func composePose(cumulative, incremental spatialmath.Pose, aux AuxiliaryMotion) spatialmath.Pose {
	rot := spatialmath.AccumulateRotation(cumulative.Rot, incremental.Rot.Neg())

	v := incremental.Pos.Sub(aux.ShiftFromStart)
	v = spatialmath.RotateZXY(v, rot.Z, rot.X, rot.Y)

	return spatialmath.Pose{
		Rot: spatialmath.PluginAuxiliaryRotation(rot, aux.Start, aux.End),
		Pos: cumulative.Pos.Sub(v),
	}
}

// seedPose is the cumulative pose after the first sweep: the sensor starts level with respect to
// the auxiliary pitch and roll.
func seedPose(cumulative spatialmath.Pose, aux AuxiliaryMotion) spatialmath.Pose {
	cumulative.Rot.X = cumulative.Rot.X.Add(aux.Start.X)
	cumulative.Rot.Z = cumulative.Rot.Z.Add(aux.Start.Z)
	return cumulative
}
