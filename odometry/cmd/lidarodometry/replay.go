package main

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"go.viam.com/lidarodometry/logging"
	"go.viam.com/lidarodometry/odometry"
	"go.viam.com/lidarodometry/pointcloud"
	"go.viam.com/lidarodometry/spatialmath"
	"go.viam.com/lidarodometry/testutils"
)

type replayOptions struct {
	config   *odometry.Config
	frames   int
	rollRate float64
	speed    float64
	realtime bool
	// poses is optional.
	poses *odometry.PoseLog
}

// sweepMotion is how the scene moves relative to the sensor between two sweeps.
func (opts replayOptions) sweepMotion() spatialmath.Pose {
	period := opts.config.ScanPeriod
	return spatialmath.Pose{
		Rot: spatialmath.NewRotationDegrees(0, 0, -opts.rollRate*period),
		Pos: r3.Vector{X: -opts.speed * period},
	}
}

type replaySummary struct {
	runID      uuid.UUID
	sweeps     int
	cycles     int
	states     map[odometry.SolverState]int
	degenerate int
	iterations int
	registered int
	final      spatialmath.Pose
}

func (s *replaySummary) record(report odometry.CycleReport, registered bool) {
	s.cycles++
	s.states[report.State]++
	s.iterations += report.Iterations
	if report.Degenerate {
		s.degenerate++
	}
	if registered {
		s.registered++
	}
}

// convergedShare is the percentage of cycles that converged.
func (s *replaySummary) convergedShare() float64 {
	total := lo.Sum(lo.Values(s.states))
	if total == 0 {
		return 0
	}
	return 100 * float64(s.states[odometry.StateConverged]) / float64(total)
}

func (s *replaySummary) String() string {
	meanIterations := 0.
	if s.cycles > 0 {
		meanIterations = float64(s.iterations) / float64(s.cycles)
	}
	pos := s.final.Pos
	rot := s.final.Rot.Degrees()

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("run %s", s.runID))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Sweeps", s.sweeps},
		{"Cycles", s.cycles},
		{"Converged", s.states[odometry.StateConverged]},
		{"Exhausted", s.states[odometry.StateExhausted]},
		{"Skipped", s.states[odometry.StateSkipped]},
		{"Converged share", fmt.Sprintf("%.0f%%", s.convergedShare())},
		{"Degenerate", s.degenerate},
		{"Mean iterations", fmt.Sprintf("%.1f", meanIterations)},
		{"Registered clouds", s.registered},
		{"Position", fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", pos.X, pos.Y, pos.Z)},
		{"Rotation", fmt.Sprintf("X:%.2f, Y:%.2f, Z:%.2f", rot.X, rot.Y, rot.Z)},
	})
	return t.Render()
}

func submitSweep(fb *odometry.FrameBuffer, scene testutils.Scene, stamp time.Time) error {
	for _, stream := range []struct {
		kind  odometry.StreamKind
		cloud func() pointcloud.Cloud
	}{
		{odometry.StreamSharpCorners, scene.Corners.Clone},
		{odometry.StreamLessSharpCorners, scene.Corners.Clone},
		{odometry.StreamFlatSurfaces, scene.Surfaces.Clone},
		{odometry.StreamLessFlatSurfaces, scene.Surfaces.Clone},
		{odometry.StreamFullResolution, scene.Full},
	} {
		if err := fb.Submit(stream.kind, stream.cloud(), stamp); err != nil {
			return err
		}
	}
	return fb.SubmitAuxiliary(odometry.AuxiliaryMotion{}, stamp)
}

// runReplay feeds opts.frames sweeps of a moving scene to a new engine. A producer goroutine
// submits each sweep and waits for the engine goroutine to consume it.
func runReplay(ctx context.Context, opts replayOptions, clk clock.Clock, logger logging.Logger) (*replaySummary, error) {
	engine, err := odometry.NewEngine(opts.config, logger)
	if err != nil {
		return nil, err
	}
	period := time.Duration(opts.config.ScanPeriod * float64(time.Second))
	motion := opts.sweepMotion()
	summary := &replaySummary{sweeps: opts.frames, states: map[odometry.SolverState]int{}}

	submitted := make(chan time.Time)
	consumed := make(chan struct{})
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(submitted)
		var ticker *clock.Ticker
		if opts.realtime {
			ticker = clk.Ticker(period)
			defer ticker.Stop()
		}
		start := clk.Now()
		scene := testutils.NewScene(opts.config.ScanPeriod)
		for i := 0; i < opts.frames; i++ {
			stamp := start.Add(time.Duration(i) * period)
			if ticker != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case stamp = <-ticker.C:
				}
			}
			if err := submitSweep(engine.Frames(), scene, stamp); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case submitted <- stamp:
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-consumed:
			}
			scene = scene.Moved(motion)
		}
		return nil
	})

	g.Go(func() error {
		for stamp := range submitted {
			if dropped := engine.Frames().DiscardStale(); dropped > 0 {
				logger.Warnw("dropped stale streams", "count", dropped, "stamp", stamp)
			}
			if engine.Process() {
				report := engine.LastReport()
				_, registered := engine.RegisteredCloud()
				summary.record(report, registered)
				logger.Debugw("cycle done",
					"frame", engine.FrameCount(),
					"state", report.State,
					"iterations", report.Iterations,
					"residuals", report.Residuals,
					"median_residual", report.Stats.Median)
				if opts.poses != nil {
					if err := opts.poses.Append(engine.CumulativePose()); err != nil {
						return err
					}
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case consumed <- struct{}{}:
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary.final = engine.CumulativePose()
	logger.Infow("replay done", "sweeps", summary.sweeps, "cycles", summary.cycles)
	return summary, nil
}
