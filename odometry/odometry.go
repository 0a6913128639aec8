// Package odometry implements scan-to-scan lidar odometry. Each cycle registers the sharp corner
// and flat surface features of the latest sweep against the less sharp and less flat features of
// the previous sweep, producing the incremental motion of the sensor over the sweep and the
// cumulative pose of the platform.
package odometry

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/lidarodometry/logging"
	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
)

const (
	// minReferenceCorners and minReferenceSurfaces are the reference cloud sizes that must be
	// exceeded for a sweep to be registered.
	minReferenceCorners  = 10
	minReferenceSurfaces = 100
)

// Engine is the odometry state machine. It is not safe for concurrent use, except for its
// FrameBuffer which producers may feed from other goroutines.
type Engine struct {
	cfg    Config
	logger logging.Logger
	frames *FrameBuffer

	initialized bool
	frameCount  int

	corners  referenceFeatures
	surfaces referenceFeatures

	// transform is the incremental pose, carried over as the prior of the next sweep.
	transform spatialmath.Pose
	// transformSum is the cumulative pose.
	transformSum spatialmath.Pose

	registered      pointcloud.Cloud
	registeredReady bool
	report          CycleReport
}

// NewEngine returns an engine that consumes frames from its own FrameBuffer.
func NewEngine(cfg *Config, logger logging.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate("odometry"); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, errors.New("odometry engine requires a logger")
	}
	return &Engine{
		cfg:          *cfg,
		logger:       logger,
		frames:       NewFrameBuffer(),
		transform:    spatialmath.NewZeroPose(),
		transformSum: spatialmath.NewZeroPose(),
	}, nil
}

// Frames returns the buffer the engine consumes its inputs from.
func (e *Engine) Frames() *FrameBuffer {
	return e.frames
}

// Process runs one cycle if the frame buffer holds a synchronized frame. It returns true when a
// sweep was registered; consuming the first frame only seeds the reference clouds and returns
// false.
func (e *Engine) Process() bool {
	frame, ok := e.frames.Consume()
	if !ok {
		return false
	}
	return e.processFrame(frame)
}

func (e *Engine) processFrame(frame Frame) bool {
	e.registeredReady = false
	e.registered = nil

	if !e.initialized {
		e.bootstrap(frame)
		return false
	}

	e.frameCount++
	e.transform.Pos = e.transform.Pos.Sub(frame.Auxiliary.VelocityFromStart.Mul(e.cfg.ScanPeriod))

	sharp := frame.SharpCorners.Clone().RemoveNonFinite()
	flat := frame.FlatSurfaces.Clone().RemoveNonFinite()
	report := CycleReport{
		Stamp:    frame.Stamp,
		Corners:  len(sharp),
		Surfaces: len(flat),
	}

	if e.corners.cloud.Size() > minReferenceCorners && e.surfaces.cloud.Size() > minReferenceSurfaces {
		e.register(sharp, flat, &report)
	} else {
		report.State = StateSkipped
		e.logger.Debugw("reference clouds too small, keeping motion prior",
			"corners", e.corners.cloud.Size(), "surfaces", e.surfaces.cloud.Size())
	}

	if deg := e.transform.Rot.Degrees(); math.Abs(deg.X) > 1 || math.Abs(deg.Y) > 1 || math.Abs(deg.Z) > 1 {
		e.logger.Debugw("large incremental rotation", "degrees", deg)
	}

	e.transformSum = composePose(e.transformSum, e.transform, frame.Auxiliary)

	motion := scanMotion{transform: e.transform, aux: frame.Auxiliary, scanPeriod: e.cfg.ScanPeriod}
	lessSharp := frame.LessSharpCorners.Clone()
	lessFlat := frame.LessFlatSurfaces.Clone()
	report.LargeCorrections = motion.cloudToScanEnd(lessSharp) + motion.cloudToScanEnd(lessFlat)
	if report.LargeCorrections > 0 {
		e.logger.Debugw("large start corrections while carrying features to sweep end",
			"points", report.LargeCorrections)
	}
	e.swapReferences(lessSharp, lessFlat)

	if e.cfg.IORatio < 2 || e.frameCount%e.cfg.IORatio == 1 {
		full := frame.FullResolution.Clone()
		motion.cloudToScanEnd(full)
		e.registered = full
		e.registeredReady = true
	}

	e.report = report
	return true
}

// bootstrap seeds the reference clouds with the first sweep.
func (e *Engine) bootstrap(frame Frame) {
	e.swapReferences(frame.LessSharpCorners.Clone(), frame.LessFlatSurfaces.Clone())
	e.transformSum = seedPose(e.transformSum, frame.Auxiliary)
	e.initialized = true
	e.report = CycleReport{Stamp: frame.Stamp, State: StateInit}
	e.logger.Debugw("reference clouds initialized",
		"corners", e.corners.cloud.Size(), "surfaces", e.surfaces.cloud.Size())
}

// swapReferences replaces the reference clouds and rebuilds their indices.
func (e *Engine) swapReferences(corners, surfaces pointcloud.Cloud) {
	e.corners = newReferenceFeatures(corners.RemoveNonFinite())
	e.surfaces = newReferenceFeatures(surfaces.RemoveNonFinite())
}

// Initialized returns whether the reference clouds have been seeded.
func (e *Engine) Initialized() bool {
	return e.initialized
}

// CumulativePose returns the pose of the platform in the world frame.
func (e *Engine) CumulativePose() spatialmath.Pose {
	return e.transformSum
}

// IncrementalPose returns the motion estimated over the last sweep.
func (e *Engine) IncrementalPose() spatialmath.Pose {
	return e.transform
}

// RegisteredCloud returns the full resolution cloud of the last cycle carried to sweep end. ok is
// false when the last cycle did not emit one.
func (e *Engine) RegisteredCloud() (pointcloud.Cloud, bool) {
	return e.registered, e.registeredReady
}

// LastReport returns the report of the last cycle.
func (e *Engine) LastReport() CycleReport {
	return e.report
}

// FrameCount returns the number of registered sweeps.
func (e *Engine) FrameCount() int {
	return e.frameCount
}
