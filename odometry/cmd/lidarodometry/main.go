// Package main replays a synthetic moving lidar scene through the odometry engine.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/lidarodometry/logging"
	"go.viam.com/lidarodometry/odometry"
)

const (
	// Flags.
	flagConfig     = "config"
	flagFrames     = "frames"
	flagRollRate   = "roll-rate"
	flagSpeed      = "speed"
	flagPoseLog    = "pose-log"
	flagPoseFormat = "pose-format"
	flagRealtime   = "realtime"
	flagLogFile    = "log-file"
	flagDebug      = "debug"

	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

func main() {
	if err := newApp(clock.New()).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(clk clock.Clock) *cli.App {
	return &cli.App{
		Name:  "lidarodometry",
		Usage: "run scan-to-scan lidar odometry over a synthetic scene",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "replay a moving sensor and log its estimated poses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load odometry parameters from `FILE`",
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Value: 20,
						Usage: "number of sweeps to replay",
					},
					&cli.Float64Flag{
						Name:  flagRollRate,
						Value: 10,
						Usage: "sensor roll rate about its z axis in degrees per second",
					},
					&cli.Float64Flag{
						Name:  flagSpeed,
						Value: 0.5,
						Usage: "sensor speed along x in length units per second",
					},
					&cli.StringFlag{
						Name:  flagPoseLog,
						Usage: "append cumulative poses to `FILE`",
					},
					&cli.StringFlag{
						Name:  flagPoseFormat,
						Value: string(odometry.PoseFormatRotationTranslation),
						Usage: "pose log layout: rt or kitti",
					},
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "pace sweeps at the scan period",
					},
					&cli.StringFlag{
						Name:  flagLogFile,
						Usage: "also write logs to a rotated `FILE`",
					},
					&cli.BoolFlag{
						Name:    flagDebug,
						Aliases: []string{"vvv"},
						Usage:   "enable debug logging",
					},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, clk)
				},
			},
			{
				Name:  "schema",
				Usage: "print the JSON schema of the odometry configuration",
				Action: func(c *cli.Context) error {
					out, err := json.MarshalIndent(odometry.ConfigSchema(), "", "  ")
					if err != nil {
						return errors.Wrap(err, "cannot render config schema")
					}
					_, err = fmt.Fprintln(c.App.Writer, string(out))
					return err
				},
			},
		},
	}
}

func runAction(c *cli.Context, clk clock.Clock) (err error) {
	cfg := odometry.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		if cfg, err = odometry.LoadConfig(path); err != nil {
			return err
		}
	}
	if c.Int(flagFrames) < 1 {
		return errors.Errorf("--%s must be at least 1", flagFrames)
	}
	format, err := odometry.ParsePoseFormat(c.String(flagPoseFormat))
	if err != nil {
		return err
	}

	runID := uuid.New()
	var logger logging.Logger
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("lidarodometry")
	} else {
		logger = logging.NewLogger("lidarodometry")
	}
	logger = logger.Sublogger(runID.String()[:8])
	if path := c.String(flagLogFile); path != "" {
		appender := logging.NewFileAppender(path, logFileMaxSizeMB, logFileMaxBackups)
		defer goutils.UncheckedErrorFunc(appender.Close)
		logger.AddAppender(appender)
	}
	defer goutils.UncheckedErrorFunc(logger.Sync)

	opts := replayOptions{
		config:   cfg,
		frames:   c.Int(flagFrames),
		rollRate: c.Float64(flagRollRate),
		speed:    c.Float64(flagSpeed),
		realtime: c.Bool(flagRealtime),
	}
	if path := c.String(flagPoseLog); path != "" {
		poses, openErr := odometry.OpenPoseLog(path, format)
		if openErr != nil {
			return openErr
		}
		defer func() {
			if closeErr := poses.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		opts.poses = poses
	}

	summary, err := runReplay(c.Context, opts, clk, logger)
	if err != nil {
		return err
	}
	summary.runID = runID
	_, err = fmt.Fprintln(c.App.Writer, summary.String())
	return err
}
