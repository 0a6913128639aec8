package spatialmath

// PluginAuxiliaryRotation refines a composed world rotation with orientations measured by an
// auxiliary sensor at the start and end of a sweep: the sweep-start orientation is removed and
// the sweep-end orientation applied, R(composed)·R(start)ᵀ·R(end).
//
// For both auxiliary orientations X carries pitch, Y yaw and Z roll. Zero auxiliary
// orientations leave the composed rotation unchanged.
func PluginAuxiliaryRotation(composed, start, end Rotation) Rotation {
	return RotationFromMatrix(composed.Matrix().Mul3(start.Matrix().Transpose()).Mul3(end.Matrix()))
}
