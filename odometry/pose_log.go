package odometry

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/lidarodometry/spatialmath"
)

// PoseFormat selects the layout of a pose log line. Both layouts hold twelve space separated
// values.
type PoseFormat string

const (
	// PoseFormatRotationTranslation writes the row-major rotation matrix followed by the
	// translation.
	PoseFormatRotationTranslation PoseFormat = "rt"
	// PoseFormatKITTI writes the row-major 3x4 matrix [R|t].
	PoseFormatKITTI PoseFormat = "kitti"
)

// ParsePoseFormat returns the format named s.
func ParsePoseFormat(s string) (PoseFormat, error) {
	switch PoseFormat(strings.ToLower(s)) {
	case PoseFormatRotationTranslation:
		return PoseFormatRotationTranslation, nil
	case PoseFormatKITTI:
		return PoseFormatKITTI, nil
	}
	return "", errors.Errorf("unknown pose format %q", s)
}

// FormatPose renders a pose as one log line, without the trailing newline.
func FormatPose(pose spatialmath.Pose, format PoseFormat) string {
	m := pose.RotationMatrix()
	t := pose.Pos
	var values []float64
	switch format {
	case PoseFormatKITTI:
		values = []float64{
			m.At(0, 0), m.At(0, 1), m.At(0, 2), t.X,
			m.At(1, 0), m.At(1, 1), m.At(1, 2), t.Y,
			m.At(2, 0), m.At(2, 1), m.At(2, 2), t.Z,
		}
	default:
		values = []float64{
			m.At(0, 0), m.At(0, 1), m.At(0, 2),
			m.At(1, 0), m.At(1, 1), m.At(1, 2),
			m.At(2, 0), m.At(2, 1), m.At(2, 2),
			t.X, t.Y, t.Z,
		}
	}
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(fields, " ")
}

// PoseLog appends poses to a writer, one per line.
type PoseLog struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	format PoseFormat
	count  int
}

// NewPoseLog returns a log writing to w.
func NewPoseLog(w io.Writer, format PoseFormat) *PoseLog {
	return &PoseLog{w: w, format: format}
}

// OpenPoseLog opens, or creates, the file at path and appends to it.
func OpenPoseLog(path string, format PoseFormat) (*PoseLog, error) {
	//nolint:gosec
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open pose log %q", path)
	}
	return &PoseLog{w: f, closer: f, format: format}, nil
}

// Append writes one pose.
func (pl *PoseLog) Append(pose spatialmath.Pose) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if _, err := fmt.Fprintln(pl.w, FormatPose(pose, pl.format)); err != nil {
		return errors.Wrap(err, "cannot append pose")
	}
	pl.count++
	return nil
}

// Count returns the number of poses appended so far.
func (pl *PoseLog) Count() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.count
}

// Close flushes and closes the underlying file, if the log owns one.
func (pl *PoseLog) Close() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.closer == nil {
		return nil
	}
	var err error
	if f, ok := pl.closer.(*os.File); ok {
		err = multierr.Append(err, f.Sync())
	}
	err = multierr.Append(err, pl.closer.Close())
	pl.closer = nil
	return err
}
